package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_Defaults(t *testing.T) {
	clock := NewStepClock(time.Time{}, 0)

	assert.Equal(t, DefaultBase, clock.Now())
	assert.Equal(t, DefaultBase.Add(time.Second), clock.Now())
	assert.Equal(t, int64(2), clock.Ticks())
}

func TestStepClock_CustomStep(t *testing.T) {
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := NewStepClock(base, time.Minute)

	assert.Equal(t, base, clock.Now())
	assert.Equal(t, base.Add(time.Minute), clock.Now())
	assert.Equal(t, base.Add(2*time.Minute), clock.Now())
}

func TestStepClock_Reset(t *testing.T) {
	clock := NewStepClock(time.Time{}, 0)
	clock.Now()
	clock.Now()

	clock.Reset()

	assert.Equal(t, int64(0), clock.Ticks())
	assert.Equal(t, DefaultBase, clock.Now())
}

func TestStepClock_ThreadSafe(t *testing.T) {
	clock := NewStepClock(time.Time{}, 0)
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	var mu sync.Mutex
	seen := make(map[time.Time]bool)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				ts := clock.Now()
				mu.Lock()
				assert.False(t, seen[ts], "duplicate instant %s", ts)
				seen[ts] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
}

func TestStepClock_Deterministic(t *testing.T) {
	a := NewStepClock(time.Time{}, 0)
	b := NewStepClock(time.Time{}, 0)

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Now(), b.Now())
	}
}

func TestSequentialSessionGenerator(t *testing.T) {
	gen := NewSequentialSessionGenerator("")
	assert.Equal(t, "test-session-0001", gen.Generate())
	assert.Equal(t, "test-session-0002", gen.Generate())

	named := NewSequentialSessionGenerator("line-a")
	assert.Equal(t, "line-a-0001", named.Generate())
}
