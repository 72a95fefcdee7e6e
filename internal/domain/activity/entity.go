package activity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCheckIn  = "attendance.checkin"
	ActionCheckOut = "attendance.checkout"
)

// Entry is one row of the audit trail.
type Entry struct {
	ID           uuid.UUID
	EmployeeID   int64
	UserID       int64
	Action       string
	AttendanceID *int64
	Details      map[string]any
	CreatedAt    time.Time
}
