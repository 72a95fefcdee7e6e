package attendance

import (
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type Request struct {
	Action           Action   `json:"action"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Accuracy         *float64 `json:"accuracy"`
	AutoCheckIn      bool     `json:"auto_checkin"`
	DetectedBranchID *int64   `json:"detected_branch_id"`
}

// Validate rejects malformed requests before any schedule or geofence work.
// The first failing class decides the returned error.
func (r *Request) Validate() error {
	if r.Action != ActionCheckIn && r.Action != ActionCheckOut {
		return &RequestError{Err: ErrInvalidAction, Fields: validator.ValidationErrors{{
			Field:   "action",
			Message: "action must be one of checkin, checkout",
		}}}
	}

	var missing validator.ValidationErrors
	if r.Latitude == nil {
		missing = append(missing, validator.ValidationError{Field: "latitude", Message: "latitude is required"})
	}
	if r.Longitude == nil {
		missing = append(missing, validator.ValidationError{Field: "longitude", Message: "longitude is required"})
	}
	if len(missing) > 0 {
		return &RequestError{Err: ErrMissingLocation, Fields: missing}
	}

	var errs validator.ValidationErrors
	if !validator.InRange(*r.Latitude, -90, 90) {
		errs = append(errs, validator.ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"})
	}
	if !validator.InRange(*r.Longitude, -180, 180) {
		errs = append(errs, validator.ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"})
	}
	if r.Accuracy != nil && !validator.IsFinite(*r.Accuracy) {
		errs = append(errs, validator.ValidationError{Field: "accuracy", Message: "accuracy must be a number"})
	}
	if len(errs) > 0 {
		return &RequestError{Err: ErrInvalidCoordinates, Fields: errs}
	}

	return nil
}

// Point returns the validated request coordinate.
func (r *Request) Point() geo.Point {
	return geo.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

type CheckInResponse struct {
	Success       bool     `json:"success"`
	Action        Action   `json:"action"`
	AttendanceID  int64    `json:"attendance_id"`
	CheckInTime   string   `json:"check_in_time"`
	LateMinutes   int      `json:"late_minutes"`
	PenaltyPoints float64  `json:"penalty_points"`
	Status        Status   `json:"status"`
	BranchName    *string  `json:"branch_name"`
	Method        Method   `json:"method"`
	Warnings      []string `json:"warnings,omitempty"`
}

type CheckOutResponse struct {
	Success           bool     `json:"success"`
	Action            Action   `json:"action"`
	AttendanceID      int64    `json:"attendance_id"`
	CheckInTime       string   `json:"check_in_time"`
	CheckOutTime      string   `json:"check_out_time"`
	LateMinutes       int      `json:"late_minutes"`
	PenaltyPoints     float64  `json:"penalty_points"`
	Status            Status   `json:"status"`
	BranchName        *string  `json:"branch_name"`
	WorkMinutes       int      `json:"work_minutes"`
	OvertimeMinutes   int      `json:"overtime_minutes"`
	EarlyLeaveMinutes int      `json:"early_leave_minutes"`
	BonusPoints       float64  `json:"bonus_points"`
	NetPoints         float64  `json:"net_points"`
	PointsDelta       float64  `json:"points_delta"`
	Warnings          []string `json:"warnings,omitempty"`
}

type ScheduleSummary struct {
	Source             string  `json:"source"`
	Mode               string  `json:"mode"`
	WorkStart          string  `json:"work_start"`
	WorkEnd            string  `json:"work_end"`
	GracePeriodMinutes int     `json:"grace_period_minutes"`
	WorkingDay         bool    `json:"working_day"`
	MinWorkingHours    float64 `json:"min_working_hours,omitempty"`
}

type TodayResponse struct {
	Success       bool            `json:"success"`
	Date          string          `json:"date"`
	HasCheckedIn  bool            `json:"has_checked_in"`
	HasCheckedOut bool            `json:"has_checked_out"`
	CanCheckIn    bool            `json:"can_check_in"`
	CanCheckOut   bool            `json:"can_check_out"`
	AttendanceID  *int64          `json:"attendance_id,omitempty"`
	CheckInTime   *string         `json:"check_in_time,omitempty"`
	CheckOutTime  *string         `json:"check_out_time,omitempty"`
	Status        *Status         `json:"status,omitempty"`
	PointBalance  float64         `json:"point_balance"`
	Schedule      ScheduleSummary `json:"schedule"`
}
