package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studytrack/backend/internal/clock"
)

func TestRegistryReturnsOneTimerPerUser(t *testing.T) {
	reg := NewRegistry(clock.NewFake(epoch), Config{FocusMinutes: 30, BreakMinutes: 10}, nil, nil)

	a := reg.Get("user-a")
	assert.Same(t, a, reg.Get("user-a"))
	assert.NotSame(t, a, reg.Get("user-b"))
	assert.Equal(t, 30*60, a.Snapshot().RemainingSeconds)
}

func TestRegistryFallsBackToDefaultConfig(t *testing.T) {
	reg := NewRegistry(clock.NewFake(epoch), Config{}, nil, nil)
	assert.Equal(t, DefaultConfig(), reg.Get("u").Config())
}

func TestRegistryTickAllRoutesCompletionsByUser(t *testing.T) {
	clk := clock.NewFake(epoch)
	var mu sync.Mutex
	got := map[string][]PhaseCompleted{}
	reg := NewRegistry(clk, Config{FocusMinutes: 1, BreakMinutes: 1}, func(userID string, c PhaseCompleted) {
		mu.Lock()
		defer mu.Unlock()
		got[userID] = append(got[userID], c)
	}, nil)

	reg.Get("alice").Start()
	reg.Get("bob").Start()
	reg.Get("carol")
	clk.Advance(time.Minute)

	assert.Equal(t, 2, reg.TickAll())
	assert.Equal(t, 0, reg.TickAll())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got["alice"], 1)
	require.Len(t, got["bob"], 1)
	assert.Empty(t, got["carol"])
	assert.Equal(t, PhaseFocus, got["alice"][0].Phase)
}

func TestRegistryRunStopsOnCancel(t *testing.T) {
	clk := clock.NewFake(epoch)
	completed := make(chan PhaseCompleted, 1)
	reg := NewRegistry(clk, Config{FocusMinutes: 1, BreakMinutes: 1}, func(_ string, c PhaseCompleted) {
		completed <- c
	}, nil)
	reg.Get("u").Start()
	clk.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	select {
	case c := <-completed:
		assert.Equal(t, epoch.Add(time.Minute), c.CompletedAt)
	case <-time.After(2 * time.Second):
		t.Fatal("tick loop never observed expiry")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick loop did not stop")
	}
}
