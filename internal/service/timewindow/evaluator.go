package timewindow

import (
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

type Phase string

const (
	PhaseTooEarly     Phase = "too_early"
	PhaseEarly        Phase = "early"
	PhaseOnTime       Phase = "on_time"
	PhaseLate         Phase = "late"
	PhaseGraceExpired Phase = "grace_expired"
	PhaseClosed       Phase = "closed"
)

// Warning codes attached to accepted actions.
const (
	WarnCheckInTooEarly         = "checkin_too_early"
	WarnCheckInClosed           = "checkin_closed"
	WarnCheckOutTooEarly        = "checkout_too_early"
	WarnCheckOutClosed          = "checkout_closed"
	WarnBelowMinWorkingHours    = "below_min_working_hours"
	WarnMaxWorkingHoursExceeded = "max_working_hours_exceeded"
	WarnNonWorkingDay           = "non_working_day"
)

const clockLayout = "15:04"

// Windows are the instants an evaluation is measured against, for one day.
type Windows struct {
	WorkStart      time.Time
	WorkEnd        time.Time
	CheckInOpens   time.Time
	CheckInCloses  time.Time
	GraceDeadline  time.Time
	CheckOutOpens  time.Time
	CheckOutCloses time.Time
	// CheckOutUnbounded lifts CheckOutCloses when late check-out is allowed.
	CheckOutUnbounded bool
}

type Evaluator struct {
	schedule          schedule.AttendanceSchedule
	strict            bool
	checkInAfter      time.Duration
	checkOutWindow    time.Duration
	overtimeThreshold int
}

func New(s schedule.AttendanceSchedule, settings schedule.AttendanceSettings) *Evaluator {
	return &Evaluator{
		schedule:          s,
		strict:            settings.StrictTimeWindows,
		checkInAfter:      time.Duration(settings.CheckInWindowAfterMinutes) * time.Minute,
		checkOutWindow:    time.Duration(settings.CheckOutWindowMinutes) * time.Minute,
		overtimeThreshold: settings.OvertimeBonusThresholdMinutes,
	}
}

// Windows derives the check-in and check-out windows on the date of day.
func (e *Evaluator) Windows(day time.Time) Windows {
	start := e.schedule.WorkStart.On(day)
	end := e.schedule.WorkEnd.On(day)
	return Windows{
		WorkStart:         start,
		WorkEnd:           end,
		CheckInOpens:      start.Add(-time.Duration(e.schedule.EarlyCheckInMinutes) * time.Minute),
		CheckInCloses:     start.Add(e.checkInAfter),
		GraceDeadline:     start.Add(time.Duration(e.schedule.GracePeriodMinutes) * time.Minute),
		CheckOutOpens:     end.Add(-e.checkOutWindow),
		CheckOutCloses:    end.Add(e.checkOutWindow),
		CheckOutUnbounded: e.schedule.LateCheckoutAllowed,
	}
}

// CheckInPhase classifies now against the check-in window.
func (e *Evaluator) CheckInPhase(now time.Time) Phase {
	w := e.Windows(now)
	switch {
	case now.Before(w.CheckInOpens):
		return PhaseTooEarly
	case now.After(w.CheckInCloses):
		return PhaseClosed
	case now.Before(w.WorkStart):
		return PhaseEarly
	}
	late := minutesBetween(w.WorkStart, now)
	switch {
	case late == 0:
		return PhaseOnTime
	case late <= e.schedule.GracePeriodMinutes:
		return PhaseLate
	default:
		return PhaseGraceExpired
	}
}

// CheckOutPhase classifies now against the check-out window.
func (e *Evaluator) CheckOutPhase(now time.Time) Phase {
	w := e.Windows(now)
	switch {
	case now.Before(w.CheckOutOpens):
		return PhaseTooEarly
	case now.After(w.CheckOutCloses) && !w.CheckOutUnbounded:
		return PhaseClosed
	case now.Before(w.WorkEnd):
		return PhaseEarly
	}
	return PhaseOnTime
}

type CheckInResult struct {
	// Enforced is false when the attendance mode does not restrict time.
	Enforced       bool
	Phase          Phase
	LateMinutes    int
	PenaltyMinutes int
	PenaltyPoints  decimal.Decimal
	Status         attendance.Status
	Warnings       []string
}

// CheckIn evaluates a check-in at now. Outside the window it rejects in strict
// mode; otherwise the violation becomes a warning and lateness is still charged.
func (e *Evaluator) CheckIn(now time.Time) (CheckInResult, error) {
	res := CheckInResult{Status: attendance.StatusPresent, PenaltyPoints: decimal.Zero}
	if !e.schedule.WorkingDays.Contains(now.Weekday()) {
		res.Warnings = append(res.Warnings, WarnNonWorkingDay)
	}
	if !e.schedule.Mode.EnforcesTime() {
		return res, nil
	}

	w := e.Windows(now)
	res.Enforced = true
	res.Phase = e.CheckInPhase(now)

	switch res.Phase {
	case PhaseTooEarly:
		if e.strict {
			return CheckInResult{}, attendance.NewPolicyError(attendance.ErrCheckInTooEarly, map[string]any{
				"opens_at": w.CheckInOpens.Format(clockLayout),
				"deadline": w.CheckInCloses.Format(clockLayout),
			})
		}
		res.Warnings = append(res.Warnings, WarnCheckInTooEarly)
	case PhaseClosed:
		if e.strict {
			return CheckInResult{}, attendance.NewPolicyError(attendance.ErrCheckInClosed, map[string]any{
				"deadline": w.CheckInCloses.Format(clockLayout),
			})
		}
		res.Warnings = append(res.Warnings, WarnCheckInClosed)
	}

	if now.After(w.WorkStart) {
		res.LateMinutes = minutesBetween(w.WorkStart, now)
	}
	if res.LateMinutes > e.schedule.GracePeriodMinutes {
		res.Status = attendance.StatusLate
		res.PenaltyMinutes = res.LateMinutes - e.schedule.GracePeriodMinutes
		res.PenaltyPoints = points(res.PenaltyMinutes, e.schedule.LatePenaltyRate)
	}
	return res, nil
}

type CheckOutResult struct {
	Enforced          bool
	Phase             Phase
	WorkMinutes       int
	EarlyLeaveMinutes int
	OvertimeMinutes   int
	PenaltyPoints     decimal.Decimal
	BonusPoints       decimal.Decimal
	NetPoints         decimal.Decimal
	Warnings          []string
}

// CheckOut evaluates a check-out at now for a record checked in at checkIn.
// The minimum working hours are checked before the window.
func (e *Evaluator) CheckOut(checkIn, now time.Time) (CheckOutResult, error) {
	res := CheckOutResult{PenaltyPoints: decimal.Zero, BonusPoints: decimal.Zero, NetPoints: decimal.Zero}
	if now.After(checkIn) {
		res.WorkMinutes = minutesBetween(checkIn, now)
	}
	if e.schedule.MaxWorkingHours > 0 && float64(res.WorkMinutes) > e.schedule.MaxWorkingHours*60 {
		res.Warnings = append(res.Warnings, WarnMaxWorkingHoursExceeded)
	}
	if !e.schedule.Mode.EnforcesTime() {
		return res, nil
	}

	res.Enforced = true
	if minHours := e.schedule.MinWorkingHours; minHours > 0 && float64(res.WorkMinutes) < minHours*60 {
		if e.strict {
			remaining := (minHours*60 - float64(res.WorkMinutes)) / 60
			return CheckOutResult{}, attendance.NewPolicyError(attendance.ErrCheckOutTooEarly, map[string]any{
				"remaining_hours":   math.Round(remaining*100) / 100,
				"min_working_hours": minHours,
			})
		}
		res.Warnings = append(res.Warnings, WarnBelowMinWorkingHours)
	}

	w := e.Windows(now)
	res.Phase = e.CheckOutPhase(now)
	switch res.Phase {
	case PhaseTooEarly:
		if e.strict {
			return CheckOutResult{}, attendance.NewPolicyError(attendance.ErrCheckOutTooEarly, map[string]any{
				"opens_at": w.CheckOutOpens.Format(clockLayout),
			})
		}
		res.Warnings = append(res.Warnings, WarnCheckOutTooEarly)
	case PhaseClosed:
		if e.strict {
			return CheckOutResult{}, attendance.NewPolicyError(attendance.ErrCheckOutClosed, map[string]any{
				"deadline": w.CheckOutCloses.Format(clockLayout),
			})
		}
		res.Warnings = append(res.Warnings, WarnCheckOutClosed)
	}

	if now.Before(w.WorkEnd) {
		res.EarlyLeaveMinutes = minutesBetween(now, w.WorkEnd)
		res.PenaltyPoints = points(res.EarlyLeaveMinutes, e.schedule.LatePenaltyRate)
	}
	if now.After(w.WorkEnd) {
		res.OvertimeMinutes = minutesBetween(w.WorkEnd, now)
		if res.OvertimeMinutes >= e.overtimeThreshold {
			res.BonusPoints = points(res.OvertimeMinutes, e.schedule.OvertimeBonusRate)
		}
	}
	res.NetPoints = res.BonusPoints.Sub(res.PenaltyPoints)
	return res, nil
}

// minutesBetween truncates b-a to whole minutes.
func minutesBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Minute)
}

func points(minutes int, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Mul(rate).Round(2)
}
