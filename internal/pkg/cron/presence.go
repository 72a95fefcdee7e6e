package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const JobMarkIdleOffline = "mark_idle_employees_offline"

// IdleMarker is the slice of the employee repository the presence job needs.
type IdleMarker interface {
	MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

// PresenceJobs flips employees left online by a missed check-out back to offline.
type PresenceJobs struct {
	employees IdleMarker
	idleAfter time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func NewPresenceJobs(employees IdleMarker, idleAfter time.Duration, logger *slog.Logger) *PresenceJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresenceJobs{
		employees: employees,
		idleAfter: idleAfter,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *PresenceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob(JobMarkIdleOffline, interval, j.MarkIdleOffline)
}

func (j *PresenceJobs) MarkIdleOffline(ctx context.Context) error {
	cutoff := j.now().Add(-j.idleAfter)

	n, err := j.employees.MarkIdleOffline(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("mark idle employees offline: %w", err)
	}
	if n > 0 {
		j.logger.Info("idle employees marked offline", slog.Int64("count", n), slog.Time("cutoff", cutoff))
	}
	return nil
}
