// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RateRefresher reloads cached exchange rates.
type RateRefresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron       *cron.Cron
	rates      RateRefresher
	rateSpec   string
	jobTimeout time.Duration
	logger     *slog.Logger
}

// NewScheduler creates a scheduler that refreshes rates on rateSpec, a
// standard 5-field cron expression or a descriptor such as "@hourly".
func NewScheduler(rates RateRefresher, rateSpec string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:       c,
		rates:      rates,
		rateSpec:   rateSpec,
		jobTimeout: time.Minute,
		logger:     logger,
	}
}

// Start registers the jobs and begins running them.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.rateSpec, s.refreshRates); err != nil {
		return fmt.Errorf("failed to schedule exchange rate refresh %q: %w", s.rateSpec, err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("rates_spec", s.rateSpec),
	)
	return nil
}

// Stop stops the scheduler. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers an exchange rate refresh outside the schedule.
func (s *Scheduler) RunNow() {
	go s.refreshRates()
}

func (s *Scheduler) refreshRates() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.rates.Refresh(ctx); err != nil {
		s.logger.Warn("scheduled exchange rate refresh failed", slog.Any("error", err))
		return
	}
	s.logger.Debug("scheduled exchange rate refresh completed",
		slog.Duration("took", time.Since(start)),
	)
}
