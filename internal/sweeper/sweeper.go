package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"turfbook/pkg/logger"
	"turfbook/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// Expirer is the slice of the booking repository the sweeper needs.
type Expirer interface {
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper marks pending bookings whose hold has ended as expired. Occupancy
// checks never rely on it; it keeps stored statuses tidy.
type Sweeper struct {
	repo     Expirer
	schedule string
	timeout  time.Duration
	log      *logger.Logger
	cron     *cron.Cron
	now      func() time.Time

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func New(repo Expirer, schedule string, timeout time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		repo:     repo,
		schedule: schedule,
		timeout:  timeout,
		log:      log.Component("sweeper"),
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		now:      time.Now,
	}
}

// Sweep runs one pass and returns how many bookings were expired.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.repo.ExpirePending(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expire pending bookings: %w", err)
	}
	metrics.RecordExpired(n)
	return n, nil
}

// Start schedules Sweep and returns. The jobs stop when ctx is done or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}
	s.cron.Start()
	s.log.Info("Sweeper scheduled", "schedule", s.schedule)

	go func() {
		<-s.ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Sweeper) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	start := time.Now()
	n, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error("Sweep failed", "error", err)
		return
	}
	s.log.Info("Sweep finished", "expired", n, "duration", time.Since(start).String())
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	if cancel != nil {
		cancel()
	}
}
