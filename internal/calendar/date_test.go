package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDaysCrossesBoundaries(t *testing.T) {
	testCases := []struct {
		Desc  string
		Start Date
		Days  int
		Want  Date
	}{
		{Desc: "within month", Start: New(2024, 3, 10), Days: -2, Want: New(2024, 3, 8)},
		{Desc: "back into february of leap year", Start: New(2024, 3, 1), Days: -1, Want: New(2024, 2, 29)},
		{Desc: "back into february of common year", Start: New(2023, 3, 1), Days: -1, Want: New(2023, 2, 28)},
		{Desc: "back across new year", Start: New(2025, 1, 1), Days: -1, Want: New(2024, 12, 31)},
		{Desc: "forward across new year", Start: New(2024, 12, 31), Days: 1, Want: New(2025, 1, 1)},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			assert.Equal(t, tc.Want, tc.Start.AddDays(tc.Days))
		})
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2023, time.February))
	assert.Equal(t, 30, DaysInMonth(2024, time.April))
	assert.Equal(t, 31, DaysInMonth(2024, time.December))
}

func TestFromTimeUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	instant := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, New(2024, 3, 10), FromTime(instant, time.UTC))
	assert.Equal(t, New(2024, 3, 11), FromTime(instant, loc))
}

func TestParseAndJSON(t *testing.T) {
	d, err := Parse("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, New(2024, 3, 9), d)
	assert.Equal(t, "2024-03-09", d.String())

	_, err = Parse("2024-3-9x")
	assert.Error(t, err)

	raw, err := json.Marshal(struct {
		Date Date `json:"date"`
	}{Date: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-09"}`, string(raw))
}

func TestOrdering(t *testing.T) {
	a := New(2024, 2, 29)
	b := New(2024, 3, 1)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.After(a))
}
