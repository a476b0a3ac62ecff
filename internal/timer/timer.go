// Package timer implements the focus/break countdown.
//
// Remaining time is always derived from the wall-clock instant the current run
// started, never from counting ticks, so sparse or irregular ticks (a
// backgrounded client, a GC pause, a slow scheduler) neither lose nor gain time.
// Every public method first observes expiry, which means a caller can never
// read a Running state that has in fact already finished.
package timer

import (
	"errors"
	"strings"
	"sync"
	"time"

	"studytrack/backend/internal/clock"
	"studytrack/backend/internal/notify"
)

var (
	ErrInvalidState  = errors.New("timer: operation not allowed while running")
	ErrInvalidConfig = errors.New("timer: focus and break durations must be at least one minute")
)

const DefaultTaskLabel = "Focus Session"

type Phase string

const (
	PhaseFocus Phase = "focus"
	PhaseBreak Phase = "break"
)

func (p Phase) next() Phase {
	if p == PhaseFocus {
		return PhaseBreak
	}
	return PhaseFocus
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

type Config struct {
	FocusMinutes int `json:"focusMinutes" validate:"min=1,max=600"`
	BreakMinutes int `json:"breakMinutes" validate:"min=1,max=600"`
}

func DefaultConfig() Config {
	return Config{FocusMinutes: 25, BreakMinutes: 5}
}

func (c Config) Validate() error {
	if c.FocusMinutes < 1 || c.BreakMinutes < 1 {
		return ErrInvalidConfig
	}
	return nil
}

func (c Config) minutes(p Phase) int {
	if p == PhaseBreak {
		return c.BreakMinutes
	}
	return c.FocusMinutes
}

func (c Config) duration(p Phase) time.Duration {
	return time.Duration(c.minutes(p)) * time.Minute
}

// State is a point-in-time view of a timer.
type State struct {
	Phase            Phase      `json:"phase"`
	Status           Status     `json:"status"`
	RemainingSeconds int        `json:"remainingSeconds"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	TaskLabel        string     `json:"taskLabel"`
	FocusMinutes     int        `json:"focusMinutes"`
	BreakMinutes     int        `json:"breakMinutes"`
}

// PhaseCompleted is emitted once per run that counts down to zero.
type PhaseCompleted struct {
	Phase           Phase     `json:"phase"`
	TaskLabel       string    `json:"taskLabel"`
	DurationMinutes int       `json:"durationMinutes"`
	CompletedAt     time.Time `json:"completedAt"`
}

type EventKind string

const (
	EventStateChanged   EventKind = "state_changed"
	EventPhaseCompleted EventKind = "phase_completed"
)

type Event struct {
	Kind      EventKind       `json:"kind"`
	State     State           `json:"state"`
	Completed *PhaseCompleted `json:"completed,omitempty"`
}

// CompletionHandler is invoked with the timer lock held. It must not block and
// must not call back into the timer.
type CompletionHandler func(PhaseCompleted)

type Option func(*Timer)

func WithConfig(cfg Config) Option {
	return func(t *Timer) {
		if cfg.Validate() == nil {
			t.cfg = cfg
		}
	}
}

func WithTaskLabel(label string) Option {
	return func(t *Timer) {
		t.taskLabel = normalizeLabel(label)
	}
}

func WithCompletionHandler(h CompletionHandler) Option {
	return func(t *Timer) {
		t.onComplete = h
	}
}

type Timer struct {
	mu    sync.Mutex
	clock clock.Clock
	cfg   Config

	phase  Phase
	status Status
	// remaining is the frozen value while Idle/Paused and the base of the
	// current run while Running.
	remaining time.Duration
	startedAt time.Time
	taskLabel string

	expirySignaled bool
	onComplete     CompletionHandler
	events         *notify.Broadcaster[Event]
}

func New(clk clock.Clock, opts ...Option) *Timer {
	if clk == nil {
		clk = clock.System()
	}
	t := &Timer{
		clock:     clk,
		cfg:       DefaultConfig(),
		phase:     PhaseFocus,
		status:    StatusIdle,
		taskLabel: DefaultTaskLabel,
		events:    notify.NewBroadcaster[Event](),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.remaining = t.cfg.duration(t.phase)
	return t
}

// Subscribe streams state changes and completions. State-change events may be
// dropped for a subscriber that is not keeping up; a completion event instead
// displaces the oldest buffered event.
func (t *Timer) Subscribe() (<-chan Event, func()) {
	return t.events.Subscribe()
}

func (t *Timer) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	t.observeExpiryLocked(now)
	return t.snapshotLocked(now)
}

// Tick refreshes the timer and reports whether this call observed expiry.
func (t *Timer) Tick() (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	expired := t.observeExpiryLocked(now)
	return t.snapshotLocked(now), expired
}

// Start is a no-op while Running. Starting from Idle begins a fresh run of the
// current phase; starting from Paused resumes with the frozen remaining time.
func (t *Timer) Start() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()

	if t.observeExpiryLocked(now) || t.status == StatusRunning {
		return t.snapshotLocked(now)
	}
	if t.status == StatusIdle {
		t.remaining = t.cfg.duration(t.phase)
	}
	t.status = StatusRunning
	t.startedAt = now
	t.expirySignaled = false
	return t.changedLocked(now)
}

func (t *Timer) Pause() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()

	if t.observeExpiryLocked(now) || t.status != StatusRunning {
		return t.snapshotLocked(now)
	}
	t.remaining = t.remainingAt(now)
	t.status = StatusPaused
	t.startedAt = time.Time{}
	return t.changedLocked(now)
}

func (t *Timer) Reset() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()

	t.observeExpiryLocked(now)
	t.phase = PhaseFocus
	t.status = StatusIdle
	t.startedAt = time.Time{}
	t.remaining = t.cfg.duration(PhaseFocus)
	t.expirySignaled = false
	return t.changedLocked(now)
}

func (t *Timer) SwitchPhase() (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()

	t.observeExpiryLocked(now)
	if t.status == StatusRunning {
		return t.snapshotLocked(now), ErrInvalidState
	}
	t.phase = t.phase.next()
	t.status = StatusIdle
	t.remaining = t.cfg.duration(t.phase)
	return t.changedLocked(now), nil
}

// Configure replaces the durations and rewinds the current phase to its new
// full length. A paused run is discarded.
func (t *Timer) Configure(cfg Config) (State, error) {
	if err := cfg.Validate(); err != nil {
		return t.Snapshot(), err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()

	t.observeExpiryLocked(now)
	if t.status == StatusRunning {
		return t.snapshotLocked(now), ErrInvalidState
	}
	t.cfg = cfg
	t.status = StatusIdle
	t.remaining = cfg.duration(t.phase)
	return t.changedLocked(now), nil
}

func (t *Timer) SetTaskLabel(label string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()

	t.observeExpiryLocked(now)
	t.taskLabel = normalizeLabel(label)
	return t.changedLocked(now)
}

func (t *Timer) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// observeExpiryLocked emits PhaseCompleted at most once per run, before the
// phase flip becomes visible, then parks the timer Idle on the next phase.
func (t *Timer) observeExpiryLocked(now time.Time) bool {
	if t.status != StatusRunning || t.expirySignaled {
		return false
	}
	if t.remainingAt(now) > 0 {
		return false
	}
	t.expirySignaled = true

	completed := PhaseCompleted{
		Phase:           t.phase,
		TaskLabel:       t.taskLabel,
		DurationMinutes: t.cfg.minutes(t.phase),
		CompletedAt:     t.startedAt.Add(t.remaining),
	}
	if t.onComplete != nil {
		t.onComplete(completed)
	}
	t.events.PublishEvict(Event{
		Kind:      EventPhaseCompleted,
		State:     t.snapshotLocked(now),
		Completed: &completed,
	})

	t.phase = t.phase.next()
	t.status = StatusIdle
	t.startedAt = time.Time{}
	t.remaining = t.cfg.duration(t.phase)
	t.changedLocked(now)
	return true
}

func (t *Timer) remainingAt(now time.Time) time.Duration {
	if t.status != StatusRunning {
		return t.remaining
	}
	elapsed := now.Sub(t.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	left := t.remaining - elapsed
	if left < 0 {
		return 0
	}
	return left
}

func (t *Timer) changedLocked(now time.Time) State {
	state := t.snapshotLocked(now)
	t.events.Publish(Event{Kind: EventStateChanged, State: state})
	return state
}

func (t *Timer) snapshotLocked(now time.Time) State {
	state := State{
		Phase:            t.phase,
		Status:           t.status,
		RemainingSeconds: wholeSeconds(t.remainingAt(now)),
		TaskLabel:        t.taskLabel,
		FocusMinutes:     t.cfg.FocusMinutes,
		BreakMinutes:     t.cfg.BreakMinutes,
	}
	if t.status == StatusRunning {
		startedAt := t.startedAt
		state.StartedAt = &startedAt
	}
	return state
}

// wholeSeconds rounds up, which is base - floor(elapsed) for whole-second bases.
func wholeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func normalizeLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return DefaultTaskLabel
	}
	return trimmed
}
