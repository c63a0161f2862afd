package notification

import (
	"context"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
)

// DefaultCheckInInterval is how often a check-in prompt is issued.
const DefaultCheckInInterval = time.Hour

// Ticker is the subset of *time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker is the TickerFactory backed by time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// CheckInScheduler calls its fire function on every tick until stopped.
// It is owned by one module and never outlives it.
type CheckInScheduler struct {
	interval  time.Duration
	newTicker TickerFactory
	fire      func(ctx context.Context, at time.Time)
	logger    types.Logger

	cancel   context.CancelFunc
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewCheckInScheduler creates a scheduler. A nil factory uses NewRealTicker.
func NewCheckInScheduler(interval time.Duration, newTicker TickerFactory, fire func(ctx context.Context, at time.Time), logger types.Logger) *CheckInScheduler {
	if interval <= 0 {
		interval = DefaultCheckInInterval
	}
	if newTicker == nil {
		newTicker = NewRealTicker
	}
	return &CheckInScheduler{
		interval:  interval,
		newTicker: newTicker,
		fire:      fire,
		logger:    logger,
	}
}

// Start begins ticking in a background goroutine.
func (s *CheckInScheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.doneChan = make(chan struct{})

	ticker := s.newTicker(s.interval)
	go s.run(ctx, ticker)

	s.logger.Info("Check-in scheduler started", "interval", s.interval.String())
}

func (s *CheckInScheduler) run(ctx context.Context, ticker Ticker) {
	defer close(s.doneChan)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case at := <-ticker.C():
			// A tick already in progress runs to completion; Stop waits for it.
			s.fire(context.WithoutCancel(ctx), at)
		}
	}
}

// Stop halts the scheduler and waits for the loop to exit or ctx to expire.
func (s *CheckInScheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}

	s.stopOnce.Do(s.cancel)

	select {
	case <-s.doneChan:
		s.logger.Info("Check-in scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Check-in scheduler shutdown timeout exceeded")
		return ctx.Err()
	}
	return nil
}
