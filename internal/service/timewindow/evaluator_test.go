package timewindow

import (
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakarta = time.FixedZone("WIB", 7*3600)

// monday returns 2024-05-06 at hh:mm in WIB.
func monday(hh, mm int) time.Time {
	return time.Date(2024, 5, 6, hh, mm, 0, 0, jakarta)
}

func officeSchedule() schedule.AttendanceSchedule {
	s := schedule.DefaultSettings()
	return schedule.AttendanceSchedule{
		Source:              schedule.SourceDefault,
		Mode:                schedule.ModeTimeAndLocation,
		WorkStart:           s.WorkStart,
		WorkEnd:             s.WorkEnd,
		GracePeriodMinutes:  15,
		WorkingDays:         schedule.AllDays,
		EarlyCheckInMinutes: 60,
		LatePenaltyRate:     decimal.RequireFromString("0.5"),
		OvertimeBonusRate:   decimal.RequireFromString("0.25"),
	}
}

func newEvaluator(mutate func(*schedule.AttendanceSchedule, *schedule.AttendanceSettings)) *Evaluator {
	sched := officeSchedule()
	settings := schedule.DefaultSettings()
	if mutate != nil {
		mutate(&sched, &settings)
	}
	return New(sched, settings)
}

func TestCheckIn_ScenarioA(t *testing.T) {
	e := newEvaluator(nil)

	res, err := e.CheckIn(monday(8, 10))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, res.Status)
	assert.Equal(t, 10, res.LateMinutes)
	assert.True(t, res.PenaltyPoints.IsZero())
	assert.Equal(t, PhaseLate, res.Phase)

	res, err = e.CheckIn(monday(8, 20))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, res.Status)
	assert.Equal(t, 20, res.LateMinutes)
	assert.Equal(t, 5, res.PenaltyMinutes)
	assert.True(t, res.PenaltyPoints.Equal(decimal.RequireFromString("2.5")), res.PenaltyPoints.String())
	assert.Equal(t, PhaseGraceExpired, res.Phase)
}

func TestCheckIn_GraceBoundary(t *testing.T) {
	e := newEvaluator(nil)

	res, err := e.CheckIn(monday(8, 15))
	require.NoError(t, err)
	assert.Equal(t, 15, res.LateMinutes)
	assert.True(t, res.PenaltyPoints.IsZero())
	assert.Equal(t, attendance.StatusPresent, res.Status)

	res, err = e.CheckIn(monday(8, 16))
	require.NoError(t, err)
	assert.Equal(t, 1, res.PenaltyMinutes)
	assert.True(t, res.PenaltyPoints.Equal(decimal.RequireFromString("0.5")))
}

func TestCheckIn_TruncatesSeconds(t *testing.T) {
	e := newEvaluator(nil)
	res, err := e.CheckIn(monday(8, 16).Add(59 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, 16, res.LateMinutes)
}

func TestCheckIn_PenaltyMonotonic(t *testing.T) {
	e := newEvaluator(nil)
	prev := decimal.Zero
	for m := 0; m <= 60; m++ {
		res, err := e.CheckIn(monday(8, 0).Add(time.Duration(m) * time.Minute))
		require.NoError(t, err)
		assert.True(t, res.PenaltyPoints.GreaterThanOrEqual(prev), "minute %d", m)
		prev = res.PenaltyPoints
	}
}

func TestCheckIn_Phases(t *testing.T) {
	e := newEvaluator(nil)
	tests := []struct {
		at   time.Time
		want Phase
	}{
		{monday(6, 59), PhaseTooEarly},
		{monday(7, 0), PhaseEarly},
		{monday(7, 59), PhaseEarly},
		{monday(8, 0), PhaseOnTime},
		{monday(8, 15), PhaseLate},
		{monday(8, 16), PhaseGraceExpired},
		{monday(9, 0), PhaseGraceExpired},
		{monday(9, 1), PhaseClosed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.CheckInPhase(tt.at), tt.at.Format("15:04"))
	}
}

func TestCheckIn_StrictRejections(t *testing.T) {
	e := newEvaluator(nil)

	_, err := e.CheckIn(monday(6, 30))
	require.ErrorIs(t, err, attendance.ErrCheckInTooEarly)
	var pe *attendance.PolicyError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "07:00", pe.Details["opens_at"])
	assert.Equal(t, "09:00", pe.Details["deadline"])

	_, err = e.CheckIn(monday(10, 0))
	require.ErrorIs(t, err, attendance.ErrCheckInClosed)
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "09:00", pe.Details["deadline"])
}

func TestCheckIn_NonStrictDowngradesToWarning(t *testing.T) {
	e := newEvaluator(func(_ *schedule.AttendanceSchedule, s *schedule.AttendanceSettings) {
		s.StrictTimeWindows = false
	})

	res, err := e.CheckIn(monday(5, 0))
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, WarnCheckInTooEarly)
	assert.Equal(t, 0, res.LateMinutes)

	res, err = e.CheckIn(monday(10, 0))
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, WarnCheckInClosed)
	assert.Equal(t, 120, res.LateMinutes)
	assert.Equal(t, attendance.StatusLate, res.Status)
	assert.True(t, res.PenaltyPoints.Equal(decimal.RequireFromString("52.5")))
}

func TestCheckIn_UnenforcedModes(t *testing.T) {
	for _, mode := range []schedule.AttendanceMode{schedule.ModeUnrestricted, schedule.ModeLocationOnly} {
		e := newEvaluator(func(s *schedule.AttendanceSchedule, _ *schedule.AttendanceSettings) {
			s.Mode = mode
		})
		res, err := e.CheckIn(monday(23, 30))
		require.NoError(t, err, mode)
		assert.False(t, res.Enforced)
		assert.Equal(t, attendance.StatusPresent, res.Status)
		assert.Equal(t, 0, res.LateMinutes)
		assert.True(t, res.PenaltyPoints.IsZero())
	}
}

func TestCheckIn_NonWorkingDayWarns(t *testing.T) {
	e := newEvaluator(func(s *schedule.AttendanceSchedule, _ *schedule.AttendanceSettings) {
		s.WorkingDays = schedule.NewWorkingDays(time.Tuesday)
	})
	res, err := e.CheckIn(monday(8, 0))
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, WarnNonWorkingDay)
}

func TestCheckOut_ScenarioD(t *testing.T) {
	e := newEvaluator(func(s *schedule.AttendanceSchedule, _ *schedule.AttendanceSettings) {
		s.MinWorkingHours = 8
	})

	_, err := e.CheckOut(monday(8, 0), monday(8, 10))
	require.ErrorIs(t, err, attendance.ErrCheckOutTooEarly)
	var pe *attendance.PolicyError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 7.83, pe.Details["remaining_hours"])
	assert.Equal(t, 8.0, pe.Details["min_working_hours"])
}

func TestCheckOut_MinHoursWarningWhenNotStrict(t *testing.T) {
	e := newEvaluator(func(s *schedule.AttendanceSchedule, st *schedule.AttendanceSettings) {
		s.MinWorkingHours = 10
		st.StrictTimeWindows = false
	})
	res, err := e.CheckOut(monday(8, 0), monday(17, 0))
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, WarnBelowMinWorkingHours)
	assert.Equal(t, 540, res.WorkMinutes)
}

func TestCheckOut_EarlyLeaveAndOvertime(t *testing.T) {
	e := newEvaluator(nil)

	res, err := e.CheckOut(monday(8, 0), monday(16, 30))
	require.NoError(t, err)
	assert.Equal(t, PhaseEarly, res.Phase)
	assert.Equal(t, 30, res.EarlyLeaveMinutes)
	assert.Equal(t, 0, res.OvertimeMinutes)
	assert.True(t, res.PenaltyPoints.Equal(decimal.NewFromInt(15)))
	assert.True(t, res.NetPoints.Equal(decimal.NewFromInt(-15)))

	res, err = e.CheckOut(monday(8, 0), monday(17, 14))
	require.NoError(t, err)
	assert.Equal(t, 14, res.OvertimeMinutes)
	assert.True(t, res.BonusPoints.IsZero(), "below the bonus threshold")

	res, err = e.CheckOut(monday(8, 0), monday(17, 15))
	require.NoError(t, err)
	assert.Equal(t, 15, res.OvertimeMinutes)
	assert.True(t, res.BonusPoints.Equal(decimal.RequireFromString("3.75")))
	assert.True(t, res.NetPoints.Equal(decimal.RequireFromString("3.75")))
	assert.Equal(t, 555, res.WorkMinutes)
}

func TestCheckOut_BonusMonotonic(t *testing.T) {
	e := newEvaluator(nil)
	prev := decimal.Zero
	for m := 0; m <= 60; m++ {
		res, err := e.CheckOut(monday(8, 0), monday(17, 0).Add(time.Duration(m)*time.Minute))
		require.NoError(t, err)
		assert.True(t, res.BonusPoints.GreaterThanOrEqual(prev), "minute %d", m)
		prev = res.BonusPoints
	}
}

func TestCheckOut_Window(t *testing.T) {
	e := newEvaluator(nil)

	_, err := e.CheckOut(monday(8, 0), monday(15, 59))
	require.ErrorIs(t, err, attendance.ErrCheckOutTooEarly)

	_, err = e.CheckOut(monday(8, 0), monday(18, 1))
	require.ErrorIs(t, err, attendance.ErrCheckOutClosed)

	lenient := newEvaluator(func(s *schedule.AttendanceSchedule, _ *schedule.AttendanceSettings) {
		s.LateCheckoutAllowed = true
	})
	res, err := lenient.CheckOut(monday(8, 0), monday(21, 0))
	require.NoError(t, err)
	assert.Equal(t, 240, res.OvertimeMinutes)
	assert.True(t, res.BonusPoints.Equal(decimal.NewFromInt(60)))
}

func TestCheckOut_MaxHoursWarns(t *testing.T) {
	e := newEvaluator(func(s *schedule.AttendanceSchedule, _ *schedule.AttendanceSettings) {
		s.MaxWorkingHours = 9
	})
	res, err := e.CheckOut(monday(7, 0), monday(17, 30))
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, WarnMaxWorkingHoursExceeded)
}

func TestCheckOut_Unrestricted(t *testing.T) {
	e := newEvaluator(func(s *schedule.AttendanceSchedule, _ *schedule.AttendanceSettings) {
		s.Mode = schedule.ModeUnrestricted
		s.MinWorkingHours = 8
	})
	res, err := e.CheckOut(monday(8, 0), monday(8, 5))
	require.NoError(t, err)
	assert.False(t, res.Enforced)
	assert.Equal(t, 5, res.WorkMinutes)
	assert.True(t, res.NetPoints.IsZero())
}
