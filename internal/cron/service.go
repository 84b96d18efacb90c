// Package cron runs the scheduled maintenance jobs of the cron worker.
package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/estateerp-backend/pkg/lock"
	"github.com/angelmondragon/estateerp-backend/pkg/logger"
	"github.com/angelmondragon/estateerp-backend/pkg/metrics"
)

const (
	defaultInterval = time.Hour
	defaultLockKey  = "cron:cycle"
	// DefaultLockWait bounds how long a replica waits for the cycle lock before skipping.
	DefaultLockWait = time.Second
)

// Job is one scheduled task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     []Job
	Locker   lock.Locker
	LockKey  string
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs every job once per interval. Only the replica holding the cycle lock runs a cycle.
type Service struct {
	logg     *logger.Logger
	jobs     []Job
	locker   lock.Locker
	lockKey  string
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	jobs := make([]Job, 0, len(params.Jobs))
	for _, job := range params.Jobs {
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	key := params.LockKey
	if key == "" {
		key = defaultLockKey
	}
	return &Service{
		logg:     params.Logger,
		jobs:     jobs,
		locker:   params.Locker,
		lockKey:  key,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run executes a cycle immediately and then on every tick until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.runCycle(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle reports whether this replica ran the jobs.
func (s *Service) runCycle(ctx context.Context) bool {
	obtainCtx, cancel := context.WithTimeout(ctx, DefaultLockWait)
	// the lease outlives a cycle so a slow cycle is never run twice in parallel
	lease, err := s.locker.Obtain(obtainCtx, s.lockKey, 2*s.interval)
	cancel()
	if errors.Is(err, lock.ErrNotObtained) {
		s.logg.Info(ctx, "cron cycle held by another replica; skipping")
		return false
	}
	if err != nil {
		s.logg.Error(ctx, "cron lock acquire failed", err)
		return false
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "cron lock release failed", err)
		}
	}()

	s.logg.Info(ctx, "cron cycle starting")
	for _, job := range s.jobs {
		s.runJob(ctx, job)
	}
	s.logg.Info(ctx, "cron cycle complete")
	return true
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	start := time.Now()
	err := job.Run(jobCtx)
	finished := time.Now()
	duration := finished.Sub(start)
	s.metrics.ObserveRun(job.Name(), duration, finished, err)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return
	}
	s.logg.Info(jobCtx, "job completed")
}
