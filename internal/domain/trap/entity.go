package trap

import "time"

const EventCheckIn = "checkin"

// Trigger is an outbox row consumed by the gamified trap subsystem.
type Trigger struct {
	ID           int64
	EmployeeID   int64
	AttendanceID int64
	Event        string
	OccurredAt   time.Time
	ProcessedAt  *time.Time
	CreatedAt    time.Time
}
