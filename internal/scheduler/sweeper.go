// Package scheduler runs the background job that settles matches whose final
// confirmation arrived but whose settlement did not complete.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// DefaultBatch caps how many matches one sweep settles.
const DefaultBatch = 50

// Settler settles fully confirmed matches still in progress.
type Settler interface {
	SettlePending(ctx context.Context, limit int) (int, error)
}

// Sweeper calls Settler.SettlePending on a fixed interval.
type Sweeper struct {
	settler  Settler
	interval time.Duration
	batch    int
	logger   *slog.Logger

	sched  gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSweeper creates a stopped sweeper.
func NewSweeper(settler Settler, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{settler: settler, interval: interval, batch: DefaultBatch, logger: logger}
}

// Start schedules the sweep. A sweep that is still running when the next one
// is due delays it instead of overlapping.
func (s *Sweeper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.Sweep(s.ctx) }),
		gocron.WithName("settlement-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.cancel()
		_ = sched.Shutdown()
		return fmt.Errorf("schedule settlement sweep: %w", err)
	}

	sched.Start()
	s.sched = sched
	s.logger.Info("settlement sweeper started", slog.Duration("interval", s.interval))
	return nil
}

// Sweep settles one batch and logs the outcome. It returns how many matches it settled.
func (s *Sweeper) Sweep(ctx context.Context) int {
	n, err := s.settler.SettlePending(ctx, s.batch)
	if err != nil {
		s.logger.ErrorContext(ctx, "settlement sweep failed", slog.Int("settled", n), slog.Any("error", err))
		return n
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "settlement sweep settled matches", slog.Int("settled", n))
	}
	return n
}

// Stop cancels any running sweep and waits for the scheduler to exit.
func (s *Sweeper) Stop() error {
	if s.sched == nil {
		return nil
	}
	s.cancel()
	return s.sched.Shutdown()
}
