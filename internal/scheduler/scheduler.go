package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"omni_pulse/internal/logger"
)

// DefaultSchedule is the market tick cadence (one analysis call per tick).
const DefaultSchedule = "@every 15m"

// DefaultClockInterval drives the cosmetic wall clock.
const DefaultClockInterval = time.Second

// Ticker is the market store as seen by the scheduler.
type Ticker interface {
	Tick()
}

// Scheduler drives the market tick on a cron schedule and a clock callback
// on a fixed interval.
type Scheduler struct {
	ticker     Ticker
	cron       *cron.Cron
	clock      func(time.Time)
	clockEvery time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *logrus.Entry
}

// New creates a scheduler. clock may be nil.
func New(t Ticker, clock func(time.Time), clockEvery time.Duration) *Scheduler {
	if clockEvery <= 0 {
		clockEvery = DefaultClockInterval
	}
	log := logger.Log.WithField("component", "scheduler")
	return &Scheduler{
		ticker:     t,
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log)))),
		clock:      clock,
		clockEvery: clockEvery,
		log:        log,
	}
}

// Start registers the market tick and starts both loops.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := s.cron.AddFunc(schedule, s.runTick); err != nil {
		return fmt.Errorf("invalid market tick schedule %q: %w", schedule, err)
	}
	s.cron.Start()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if s.clock != nil {
		s.wg.Add(1)
		go s.runClock(ctx)
	}

	s.log.WithField("schedule", schedule).Info("Market scheduler started")
	return nil
}

// Stop halts both loops and waits for a running tick to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.log.Info("Market scheduler stopped")
}

// RunNow triggers an immediate market tick.
func (s *Scheduler) RunNow() {
	s.runTick()
}

func (s *Scheduler) runTick() {
	start := time.Now()
	s.ticker.Tick()
	s.log.WithField("duration", time.Since(start).Round(time.Millisecond)).Debug("Market tick applied")
}

func (s *Scheduler) runClock(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.clockEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.clock(now)
		}
	}
}
