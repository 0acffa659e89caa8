package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_StartsAtBase(t *testing.T) {
	base := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	c := NewStepClock(base, time.Second)

	assert.Equal(t, base, c.Now())
	assert.Equal(t, base.Add(time.Second), c.Now())
	assert.Equal(t, int64(2), c.Calls())
}

func TestStepClock_DefaultBase(t *testing.T) {
	c := NewStepClock(time.Time{}, time.Minute)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), c.Now())
}

func TestStepClock_Reset(t *testing.T) {
	c := NewStepClock(time.Time{}, time.Second)
	first := c.Now()
	c.Now()
	c.Reset()
	assert.Equal(t, first, c.Now())
}

func TestStepClock_Concurrent(t *testing.T) {
	c := NewStepClock(time.Time{}, time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), c.Calls())
}
