package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "studytrack/backend/internal/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// InitValidator builds the shared validator. Constructors call it as well, so
// calling it from main is only needed to fail fast.
func InitValidator() {
	once.Do(func() {
		v := validator.New()
		if err := registerRules(v, customRules); err != nil {
			panic(err)
		}
		validate = v
	})
}

var customRules = map[string]validator.Func{
	"notblank": notBlank,
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func registerRules(v *validator.Validate, rules map[string]validator.Func) error {
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register validation %q: %w", tag, err)
		}
	}
	return nil
}

// validateInput turns validation failures into a 400 listing the failing
// fields and rules.
func validateInput(code string, input interface{}) *apperrors.APIError {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.BadRequest(code, err.Error())
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	apiErr := apperrors.BadRequest(code, "invalid request")
	apiErr.Details = details
	return apiErr
}
