package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionCheckIn  Action = "checkin"
	ActionCheckOut Action = "checkout"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
)

type Method string

const (
	MethodManual Method = "manual"
	MethodAuto   Method = "auto"
)

// Record is the single attendance row of one employee on one calendar date.
type Record struct {
	ID             int64
	EmployeeID     int64
	BranchID       *int64
	AttendanceDate time.Time

	CheckInTime           time.Time
	CheckInLatitude       *float64
	CheckInLongitude      *float64
	CheckInAccuracy       *float64
	CheckInDistanceMeters *float64
	CheckInMethod         Method
	CheckInAddress        *string

	CheckOutTime      *time.Time
	CheckOutLatitude  *float64
	CheckOutLongitude *float64

	LateMinutes       int
	EarlyLeaveMinutes int
	OvertimeMinutes   int
	WorkMinutes       int
	PenaltyPoints     decimal.Decimal
	BonusPoints       decimal.Decimal
	Status            Status
	IsLocked          bool

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined
	BranchName *string
}

// Open reports whether the record still waits for a check-out.
func (r Record) Open() bool {
	return r.CheckOutTime == nil && !r.IsLocked
}

// CheckOutUpdate carries the values written once when a record is completed.
type CheckOutUpdate struct {
	CheckOutTime      time.Time
	CheckOutLatitude  *float64
	CheckOutLongitude *float64
	WorkMinutes       int
	EarlyLeaveMinutes int
	OvertimeMinutes   int
	// AdditionalPenalty is added to the penalty already stored at check-in.
	AdditionalPenalty decimal.Decimal
	BonusPoints       decimal.Decimal
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
