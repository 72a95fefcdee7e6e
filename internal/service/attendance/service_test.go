package attendance

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/master/branch"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	schedulesvc "github.com/cmlabs-hris/hris-attendance-go/internal/service/schedule"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	svc        attendance.AttendanceService
	store      *memStore
	dispatcher *syncDispatcher
	activity   *activityRepo
	anomaly    *anomalyRecorder
	traps      *trapRecorder
}

func defaultResolution(mutate func(*schedule.AttendanceSchedule, *schedule.AttendanceSettings)) schedulesvc.Resolution {
	settings := schedule.DefaultSettings()
	sched := schedule.AttendanceSchedule{
		Source:              schedule.SourceDefault,
		Mode:                settings.DefaultMode,
		WorkStart:           settings.WorkStart,
		WorkEnd:             settings.WorkEnd,
		GracePeriodMinutes:  settings.GracePeriodMinutes,
		WorkingDays:         schedule.AllDays,
		EarlyCheckInMinutes: settings.EarlyCheckInMinutes,
		LatePenaltyRate:     settings.LatePenaltyRate,
		OvertimeBonusRate:   settings.OvertimeBonusRate,
	}
	if mutate != nil {
		mutate(&sched, &settings)
	}
	return schedulesvc.Resolution{Schedule: sched, Settings: settings}
}

func hq() branch.Branch {
	return branch.Branch{ID: 1, Name: "HQ", Latitude: ptr(0.0), Longitude: ptr(0.0), RadiusMeters: 20, IsActive: true}
}

func newHarness(res schedulesvc.Resolution, branches []branch.Branch, geocoder Geocoder) *harness {
	store := newMemStore(employee.Employee{
		ID:           1,
		FullName:     "Dewi",
		BranchID:     ptr(int64(1)),
		IsActive:     true,
		PointBalance: decimal.NewFromInt(10),
	})
	h := &harness{
		store:      store,
		dispatcher: &syncDispatcher{},
		activity:   &activityRepo{},
		anomaly:    &anomalyRecorder{},
		traps:      &trapRecorder{},
	}
	h.svc = NewAttendanceService(Deps{
		Ledger:     newTestLedger(store),
		Records:    recordRepo{store},
		Employees:  employeeRepo{store},
		Branches:   branchRepo{branches: branches},
		Resolver:   staticResolver{res: res},
		Dispatcher: h.dispatcher,
		Activity:   h.activity,
		Anomaly:    h.anomaly,
		Traps:      h.traps,
		Geocoder:   geocoder,
		Logger:     quietLogger(),
	})
	return h
}

func rcAt(hh, mm int) attendance.RequestContext {
	return attendance.RequestContext{EmployeeID: 1, UserID: 11, Role: "employee", Now: monday(hh, mm), CSRFVerified: true}
}

func requestAt(meters float64, accuracy *float64) attendance.Request {
	return attendance.Request{Latitude: ptr(metersNorth(meters)), Longitude: ptr(0.0), Accuracy: accuracy}
}

func TestCheckIn_LateWithPenalty(t *testing.T) {
	h := newHarness(defaultResolution(nil), []branch.Branch{hq()}, fakeGeocoder{address: "Jl. Sudirman 1"})

	resp, err := h.svc.CheckIn(context.Background(), rcAt(8, 20), requestAt(10, ptr(4.0)))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, attendance.ActionCheckIn, resp.Action)
	assert.Equal(t, "08:20", resp.CheckInTime)
	assert.Equal(t, attendance.StatusLate, resp.Status)
	assert.Equal(t, 20, resp.LateMinutes)
	assert.Equal(t, 2.5, resp.PenaltyPoints)
	require.NotNil(t, resp.BranchName)
	assert.Equal(t, "HQ", *resp.BranchName)
	assert.Equal(t, attendance.MethodManual, resp.Method)

	assert.True(t, h.store.balance(1).Equal(decimal.RequireFromString("7.5")))
	assert.ElementsMatch(t, []string{"activity_log", "anomaly_score", "trap_trigger", "reverse_geocode"}, h.dispatcher.names)
	assert.Equal(t, "Jl. Sudirman 1", h.store.addresses[resp.AttendanceID])
	assert.Equal(t, []int64{resp.AttendanceID}, h.traps.fired)
	require.Len(t, h.activity.entries, 1)
	assert.Equal(t, int64(11), h.activity.entries[0].UserID)
}

func TestCheckIn_Unrestricted(t *testing.T) {
	res := defaultResolution(func(s *schedule.AttendanceSchedule, _ *schedule.AttendanceSettings) {
		s.Mode = schedule.ModeUnrestricted
	})
	h := newHarness(res, []branch.Branch{hq()}, nil)

	req := attendance.Request{Latitude: ptr(51.5), Longitude: ptr(-0.12)}
	resp, err := h.svc.CheckIn(context.Background(), rcAt(23, 45), req)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
	assert.Equal(t, 0, resp.LateMinutes)
	assert.Equal(t, 0.0, resp.PenaltyPoints)
	require.NotNil(t, resp.BranchName)
	assert.Equal(t, "HQ", *resp.BranchName, "home branch is attributed")
}

func TestCheckIn_GeofenceBoundary(t *testing.T) {
	h := newHarness(defaultResolution(nil), []branch.Branch{hq()}, nil)

	_, err := h.svc.CheckIn(context.Background(), rcAt(8, 0), requestAt(26, ptr(5.0)))
	require.ErrorIs(t, err, attendance.ErrOutOfGeofence)
	var pe *attendance.PolicyError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 26.0, pe.Details["distance"])
	assert.Equal(t, 0, h.store.count())

	resp, err := h.svc.CheckIn(context.Background(), rcAt(8, 0), requestAt(25, ptr(5.0)))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
}

func TestCheckIn_RemoteAllowedSkipsGeofence(t *testing.T) {
	res := defaultResolution(func(s *schedule.AttendanceSchedule, _ *schedule.AttendanceSettings) {
		s.RemoteCheckInAllowed = true
	})
	h := newHarness(res, []branch.Branch{hq()}, nil)

	_, err := h.svc.CheckIn(context.Background(), rcAt(8, 0), requestAt(5000, nil))
	require.NoError(t, err)
}

func TestCheckIn_NoBranch(t *testing.T) {
	res := defaultResolution(func(s *schedule.AttendanceSchedule, _ *schedule.AttendanceSettings) {
		s.Branches = schedule.BranchSelection{IDs: []int64{99}}
	})
	h := newHarness(res, []branch.Branch{hq()}, nil)

	_, err := h.svc.CheckIn(context.Background(), rcAt(8, 0), requestAt(0, nil))
	assert.ErrorIs(t, err, attendance.ErrNoBranch)
}

func TestCheckIn_FailOpenWithoutCoordinates(t *testing.T) {
	unmapped := branch.Branch{ID: 1, Name: "HQ", IsActive: true}
	h := newHarness(defaultResolution(nil), []branch.Branch{unmapped}, nil)

	resp, err := h.svc.CheckIn(context.Background(), rcAt(8, 0), requestAt(90000, nil))
	require.NoError(t, err)
	require.NotNil(t, resp.BranchName)
	assert.Equal(t, "HQ", *resp.BranchName)
}

func TestCheckIn_Duplicate(t *testing.T) {
	h := newHarness(defaultResolution(nil), []branch.Branch{hq()}, nil)

	_, err := h.svc.CheckIn(context.Background(), rcAt(8, 0), requestAt(1, nil))
	require.NoError(t, err)

	_, err = h.svc.CheckIn(context.Background(), rcAt(8, 5), requestAt(1, nil))
	assert.ErrorIs(t, err, attendance.ErrDuplicateCheckIn)
	assert.Equal(t, 1, h.store.count())
}

func TestCheckIn_RejectsBeforePolicy(t *testing.T) {
	h := newHarness(defaultResolution(nil), []branch.Branch{hq()}, nil)

	rc := rcAt(8, 0)
	rc.CSRFVerified = false
	_, err := h.svc.CheckIn(context.Background(), rc, requestAt(1, nil))
	assert.ErrorIs(t, err, attendance.ErrCSRFInvalid)

	_, err = h.svc.CheckIn(context.Background(), rcAt(8, 0), attendance.Request{Latitude: ptr(1.0)})
	assert.ErrorIs(t, err, attendance.ErrMissingLocation)

	_, err = h.svc.CheckIn(context.Background(), rcAt(8, 0), attendance.Request{Latitude: ptr(91.0), Longitude: ptr(0.0)})
	assert.ErrorIs(t, err, attendance.ErrInvalidCoordinates)

	rc = rcAt(8, 0)
	rc.EmployeeID = 404
	_, err = h.svc.CheckIn(context.Background(), rc, requestAt(1, nil))
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestCheckIn_TooEarly(t *testing.T) {
	h := newHarness(defaultResolution(nil), []branch.Branch{hq()}, nil)

	_, err := h.svc.CheckIn(context.Background(), rcAt(6, 0), requestAt(1, nil))
	assert.ErrorIs(t, err, attendance.ErrCheckInTooEarly)
	assert.Equal(t, 0, h.store.count())
}

func TestCheckIn_SideEffectFailuresDoNotLeak(t *testing.T) {
	h := newHarness(defaultResolution(nil), []branch.Branch{hq()}, fakeGeocoder{err: errors.New("timeout")})
	h.traps.err = errors.New("trap table missing")

	_, err := h.svc.CheckIn(context.Background(), rcAt(8, 0), requestAt(1, nil))
	require.NoError(t, err)
	assert.Empty(t, h.store.addresses)
}

func TestCheckIn_StorageFailureIsInfrastructure(t *testing.T) {
	h := newHarness(defaultResolution(nil), []branch.Branch{hq()}, nil)
	h.store.createErr = errStorage

	_, err := h.svc.CheckIn(context.Background(), rcAt(8, 0), requestAt(1, nil))
	require.ErrorIs(t, err, errStorage)
	assert.NotErrorIs(t, err, attendance.ErrDuplicateCheckIn)
	assert.Empty(t, h.dispatcher.names)
}

func TestCheckOut_TwiceInARow(t *testing.T) {
	h := newHarness(defaultResolution(nil), []branch.Branch{hq()}, nil)

	_, err := h.svc.CheckIn(context.Background(), rcAt(8, 0), requestAt(1, nil))
	require.NoError(t, err)

	resp, err := h.svc.CheckOut(context.Background(), rcAt(17, 30), requestAt(1, nil))
	require.NoError(t, err)
	assert.Equal(t, attendance.ActionCheckOut, resp.Action)
	assert.Equal(t, "17:30", resp.CheckOutTime)
	assert.Equal(t, 570, resp.WorkMinutes)
	assert.Equal(t, 30, resp.OvertimeMinutes)
	assert.Equal(t, 0, resp.EarlyLeaveMinutes)
	assert.Equal(t, 7.5, resp.BonusPoints)
	assert.Equal(t, 7.5, resp.NetPoints)
	assert.Equal(t, 7.5, resp.PointsDelta)
	assert.True(t, h.store.balance(1).Equal(decimal.RequireFromString("17.5")))

	_, err = h.svc.CheckOut(context.Background(), rcAt(17, 31), requestAt(1, nil))
	assert.ErrorIs(t, err, attendance.ErrNoOpenCheckIn)
}

func TestCheckOut_PointsDeltaExcludesCheckInPenalty(t *testing.T) {
	h := newHarness(defaultResolution(nil), []branch.Branch{hq()}, nil)

	_, err := h.svc.CheckIn(context.Background(), rcAt(8, 20), requestAt(1, nil))
	require.NoError(t, err)
	require.True(t, h.store.balance(1).Equal(decimal.RequireFromString("7.5")))

	resp, err := h.svc.CheckOut(context.Background(), rcAt(17, 30), requestAt(1, nil))
	require.NoError(t, err)
	assert.Equal(t, 2.5, resp.PenaltyPoints)
	assert.Equal(t, 7.5, resp.BonusPoints)
	assert.Equal(t, 5.0, resp.NetPoints)
	assert.Equal(t, 7.5, resp.PointsDelta)
	assert.True(t, h.store.balance(1).Equal(decimal.RequireFromString("15")), "balance moves by points_delta at check-out")
}

func TestCheckOut_WithoutCheckIn(t *testing.T) {
	h := newHarness(defaultResolution(nil), []branch.Branch{hq()}, nil)
	_, err := h.svc.CheckOut(context.Background(), rcAt(17, 0), requestAt(1, nil))
	assert.ErrorIs(t, err, attendance.ErrNoOpenCheckIn)
}

func TestCheckOut_MinimumHours(t *testing.T) {
	res := defaultResolution(func(s *schedule.AttendanceSchedule, _ *schedule.AttendanceSettings) {
		s.MinWorkingHours = 8
	})
	h := newHarness(res, []branch.Branch{hq()}, nil)

	_, err := h.svc.CheckIn(context.Background(), rcAt(8, 0), requestAt(1, nil))
	require.NoError(t, err)

	_, err = h.svc.CheckOut(context.Background(), rcAt(8, 10), requestAt(1, nil))
	require.ErrorIs(t, err, attendance.ErrCheckOutTooEarly)
	var pe *attendance.PolicyError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 7.83, pe.Details["remaining_hours"])

	today, err := h.svc.Today(context.Background(), rcAt(8, 11))
	require.NoError(t, err)
	assert.True(t, today.CanCheckOut, "rejected check-out leaves the record open")
}

func TestToday(t *testing.T) {
	h := newHarness(defaultResolution(nil), []branch.Branch{hq()}, nil)

	before, err := h.svc.Today(context.Background(), rcAt(7, 30))
	require.NoError(t, err)
	assert.False(t, before.HasCheckedIn)
	assert.True(t, before.CanCheckIn)
	assert.Equal(t, "2024-05-06", before.Date)
	assert.Equal(t, "08:00", before.Schedule.WorkStart)

	early, err := h.svc.Today(context.Background(), rcAt(5, 0))
	require.NoError(t, err)
	assert.False(t, early.CanCheckIn)

	_, err = h.svc.CheckIn(context.Background(), rcAt(8, 0), requestAt(1, nil))
	require.NoError(t, err)

	after, err := h.svc.Today(context.Background(), rcAt(9, 0))
	require.NoError(t, err)
	assert.True(t, after.HasCheckedIn)
	assert.False(t, after.CanCheckIn)
	assert.True(t, after.CanCheckOut)
	require.NotNil(t, after.CheckInTime)
	assert.Equal(t, "08:00", *after.CheckInTime)
}
