package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_Advances(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewStepClock(start, time.Minute)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Minute), c.Now())
	assert.Equal(t, start.Add(2*time.Minute), c.Peek())
}

func TestStepClock_ZeroStartUsesDefault(t *testing.T) {
	c := NewStepClock(time.Time{}, 0)
	assert.Equal(t, DefaultStart, c.Now())
	assert.Equal(t, DefaultStart, c.Now(), "zero step never moves")
}

func TestStepClock_Set(t *testing.T) {
	c := NewStepClock(time.Time{}, time.Second)
	earlier := DefaultStart.Add(-time.Hour)
	c.Set(earlier)
	assert.Equal(t, earlier, c.Now())
}

func TestStepClock_Concurrent(t *testing.T) {
	c := NewStepClock(time.Time{}, time.Second)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Now()
		}()
	}
	wg.Wait()
	assert.Equal(t, DefaultStart.Add(50*time.Second), c.Peek())
}

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "op-1", NewFixedIDGenerator("op-1").Generate())
	assert.Equal(t, "test-op-default", NewFixedIDGenerator("").Generate())
}
