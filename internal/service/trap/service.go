package trap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/trap"
)

// Service records trap triggers for the external gamified subsystem to pick up.
type Service struct {
	repo   trap.Repository
	logger *slog.Logger
}

func NewService(repo trap.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// FireCheckIn enqueues a trigger for a successful check-in.
func (s *Service) FireCheckIn(ctx context.Context, employeeID, attendanceID int64, at time.Time) error {
	t, err := s.repo.Create(ctx, trap.Trigger{
		EmployeeID:   employeeID,
		AttendanceID: attendanceID,
		Event:        trap.EventCheckIn,
		OccurredAt:   at,
	})
	if err != nil {
		return fmt.Errorf("create trap trigger: %w", err)
	}
	s.logger.DebugContext(ctx, "trap trigger queued", slog.Int64("trigger_id", t.ID), slog.Int64("employee_id", employeeID))
	return nil
}
