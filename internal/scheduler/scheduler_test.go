package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTicker struct {
	n atomic.Int32
}

func (c *countingTicker) Tick() { c.n.Add(1) }

func TestScheduler_RunNow(t *testing.T) {
	tk := &countingTicker{}
	s := New(tk, nil, 0)

	s.RunNow()
	s.RunNow()
	assert.Equal(t, int32(2), tk.n.Load())
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(&countingTicker{}, nil, 0)
	err := s.Start("every fifteen minutes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid market tick schedule")
}

func TestScheduler_CronTickAndClock(t *testing.T) {
	tk := &countingTicker{}
	var clocks atomic.Int32
	s := New(tk, func(time.Time) { clocks.Add(1) }, 10*time.Millisecond)

	require.NoError(t, s.Start("@every 1s"))

	require.Eventually(t, func() bool { return clocks.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return tk.n.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	s.Stop()
	stopped := clocks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, clocks.Load(), "clock must not fire after Stop")
}
