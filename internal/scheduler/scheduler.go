// Package scheduler drives the weekly report cadence. At most one run
// is ever in flight: a trigger that lands during a run is skipped and
// counted, never queued.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/suportedesk/backend/internal/models"
)

// ErrRunInFlight is returned to manual triggers that land while a
// scheduled or manual run is still executing.
var ErrRunInFlight = errors.New("report run already in flight")

type Runner interface {
	Run(ctx context.Context, reference time.Time) (models.RunSummary, error)
}

type Scheduler struct {
	runner Runner
	logger zerolog.Logger
	cron   *cron.Cron

	inFlight atomic.Bool
	skipped  atomic.Int64
}

func New(runner Runner, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start registers the cron spec and runs until ctx is cancelled. A run
// already executing at shutdown finishes before Start returns.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.runScheduled(ctx) }); err != nil {
		return err
	}
	s.logger.Info().Str("cron", spec).Msg("report scheduler started")
	s.cron.Start()

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info().Int64("skipped", s.skipped.Load()).Msg("report scheduler stopped")
	return nil
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		n := s.skipped.Add(1)
		s.logger.Warn().Int64("skipped_total", n).Msg("previous run still in flight, trigger skipped")
		return
	}
	defer s.inFlight.Store(false)

	summary, err := s.runner.Run(ctx, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", summary.RunID).Msg("scheduled run failed")
	}
}

// TriggerNow runs the pipeline on demand under the same overlap guard
// as the cron trigger.
func (s *Scheduler) TriggerNow(ctx context.Context, reference time.Time) (models.RunSummary, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return models.RunSummary{}, ErrRunInFlight
	}
	defer s.inFlight.Store(false)
	return s.runner.Run(ctx, reference)
}

// Running reports whether a run is currently executing.
func (s *Scheduler) Running() bool {
	return s.inFlight.Load()
}

// Skipped reports how many cron triggers were dropped by the guard.
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}
