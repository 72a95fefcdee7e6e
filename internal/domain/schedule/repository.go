package schedule

import (
	"context"
	"time"
)

type PersonalScheduleRepository interface {
	// GetActiveForEmployee returns the active override covering day, or nil when
	// the employee has none.
	GetActiveForEmployee(ctx context.Context, employeeID int64, day time.Time) (*PersonalSchedule, error)
}

type SettingsRepository interface {
	// GetAll returns every row of system_settings keyed by setting name.
	GetAll(ctx context.Context) (map[string]string, error)
}
