package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

type AttendanceMode string

const (
	ModeUnrestricted    AttendanceMode = "unrestricted"
	ModeTimeOnly        AttendanceMode = "time_only"
	ModeLocationOnly    AttendanceMode = "location_only"
	ModeTimeAndLocation AttendanceMode = "time_and_location"
)

// ParseAttendanceMode accepts the stored mode name, returning false for anything else.
func ParseAttendanceMode(s string) (AttendanceMode, bool) {
	switch m := AttendanceMode(s); m {
	case ModeUnrestricted, ModeTimeOnly, ModeLocationOnly, ModeTimeAndLocation:
		return m, true
	}
	return "", false
}

// EnforcesTime reports whether check-in/check-out windows and lateness apply.
func (m AttendanceMode) EnforcesTime() bool {
	return m == ModeTimeOnly || m == ModeTimeAndLocation
}

// EnforcesLocation reports whether the geofence applies.
func (m AttendanceMode) EnforcesLocation() bool {
	return m == ModeLocationOnly || m == ModeTimeAndLocation
}

type Source string

const (
	SourcePersonal Source = "personal"
	SourceDefault  Source = "default"
)

// AttendanceSchedule is the effective schedule for one employee on one day.
// It is resolved per request and never cached.
type AttendanceSchedule struct {
	Source             Source
	Mode               AttendanceMode
	WorkStart          TimeOfDay
	WorkEnd            TimeOfDay
	GracePeriodMinutes int
	WorkingDays        WorkingDays
	Branches           BranchSelection
	HomeBranchID       *int64

	// GeofenceRadiusMeters overrides the global geofence tolerance when > 0.
	GeofenceRadiusMeters int

	RemoteCheckInAllowed bool
	MinWorkingHours      float64
	MaxWorkingHours      float64
	EarlyCheckInMinutes  int
	LateCheckoutAllowed  bool
	LatePenaltyRate      decimal.Decimal // points per minute
	OvertimeBonusRate    decimal.Decimal // points per minute

	EffectiveFrom  *time.Time
	EffectiveUntil *time.Time
}

// PersonalSchedule is the stored per-employee override row.
type PersonalSchedule struct {
	ID                   int64
	EmployeeID           int64
	Mode                 string
	WorkStartTime        string // HH:MM
	WorkEndTime          string // HH:MM
	GracePeriodMinutes   int
	WorkingDays          *string // raw JSON, e.g. [1,2,3,4,5]
	AllowedBranches      *string // raw JSON, e.g. [3,7], or "any"
	GeofenceRadiusMeters *int
	RemoteCheckInAllowed bool
	MinWorkingHours      *float64
	MaxWorkingHours      *float64
	EarlyCheckInMinutes  *int
	LateCheckoutAllowed  bool
	LatePenaltyRate      decimal.Decimal
	OvertimeBonusRate    decimal.Decimal
	IsActive             bool
	EffectiveFrom        *time.Time
	EffectiveUntil       *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ActiveOn reports whether the override applies on day. Both bounds are inclusive
// and optional; only the calendar date of each value is compared.
func (p PersonalSchedule) ActiveOn(day time.Time) bool {
	if !p.IsActive {
		return false
	}
	d := dateKey(day)
	if p.EffectiveFrom != nil && d < dateKey(*p.EffectiveFrom) {
		return false
	}
	if p.EffectiveUntil != nil && d > dateKey(*p.EffectiveUntil) {
		return false
	}
	return true
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
