package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/activity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/anomaly"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/master/branch"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/async"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/geo"
	anomalysvc "github.com/cmlabs-hris/hris-attendance-go/internal/service/anomaly"
	"github.com/cmlabs-hris/hris-attendance-go/internal/service/geofence"
	schedulesvc "github.com/cmlabs-hris/hris-attendance-go/internal/service/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/service/timewindow"
	"github.com/google/uuid"
)

const clockLayout = "15:04"

type ScheduleResolver interface {
	Resolve(ctx context.Context, emp employee.Employee, today time.Time) schedulesvc.Resolution
}

type Dispatcher interface {
	Submit(name string, fn async.Task) bool
}

type AnomalyScorer interface {
	Evaluate(ctx context.Context, sig anomaly.Signals) (anomalysvc.Assessment, error)
}

type TrapTrigger interface {
	FireCheckIn(ctx context.Context, employeeID, attendanceID int64, at time.Time) error
}

// Geocoder resolves a coordinate to a street address.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

type Deps struct {
	Ledger     *Ledger
	Records    attendance.AttendanceRepository
	Employees  employee.EmployeeRepository
	Branches   branch.BranchRepository
	Resolver   ScheduleResolver
	Dispatcher Dispatcher
	Activity   activity.Repository
	Anomaly    AnomalyScorer
	Traps      TrapTrigger
	// Geocoder is optional.
	Geocoder Geocoder
	Logger   *slog.Logger
}

type AttendanceServiceImpl struct {
	Deps
}

func NewAttendanceService(d Deps) attendance.AttendanceService {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &AttendanceServiceImpl{Deps: d}
}

// placement is where a check-in happened relative to the branches.
type placement struct {
	branch        *branch.Branch
	distance      *float64
	allowedMeters float64
	home          *branch.Branch
	homeDistance  *float64
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, rc attendance.RequestContext, req attendance.Request) (attendance.CheckInResponse, error) {
	if !rc.CSRFVerified {
		return attendance.CheckInResponse{}, attendance.ErrCSRFInvalid
	}
	req.Action = attendance.ActionCheckIn
	if err := req.Validate(); err != nil {
		return attendance.CheckInResponse{}, err
	}

	emp, err := s.activeEmployee(ctx, rc.EmployeeID)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	today := attendance.DateOf(rc.Now)
	res := s.Resolver.Resolve(ctx, emp, today)
	sched := res.Schedule

	existing, err := s.Records.GetByEmployeeAndDate(ctx, emp.ID, today)
	if err != nil {
		return attendance.CheckInResponse{}, fmt.Errorf("failed to check today's attendance: %w", err)
	}
	if existing != nil {
		return attendance.CheckInResponse{}, attendance.ErrDuplicateCheckIn
	}

	point := req.Point()
	place, err := s.locate(ctx, res, point, req.Accuracy)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	window, err := timewindow.New(sched, res.Settings).CheckIn(rc.Now)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	method := attendance.MethodManual
	if req.AutoCheckIn {
		method = attendance.MethodAuto
	}

	record := attendance.Record{
		EmployeeID:            emp.ID,
		AttendanceDate:        today,
		CheckInTime:           rc.Now,
		CheckInLatitude:       req.Latitude,
		CheckInLongitude:      req.Longitude,
		CheckInAccuracy:       req.Accuracy,
		CheckInDistanceMeters: place.distance,
		CheckInMethod:         method,
		LateMinutes:           window.LateMinutes,
		PenaltyPoints:         window.PenaltyPoints,
		Status:                window.Status,
	}
	if place.branch != nil {
		record.BranchID = &place.branch.ID
		record.BranchName = &place.branch.Name
	}

	created, err := s.Ledger.CheckIn(ctx, record)
	if err != nil {
		if errors.Is(err, attendance.ErrDuplicateCheckIn) {
			return attendance.CheckInResponse{}, err
		}
		return attendance.CheckInResponse{}, fmt.Errorf("failed to record check-in: %w", err)
	}
	created.BranchName = record.BranchName

	s.afterCheckIn(rc, req, created, place, sched.Mode, window.Warnings)

	return attendance.CheckInResponse{
		Success:       true,
		Action:        attendance.ActionCheckIn,
		AttendanceID:  created.ID,
		CheckInTime:   clock(created.CheckInTime, rc.Now),
		LateMinutes:   created.LateMinutes,
		PenaltyPoints: created.PenaltyPoints.InexactFloat64(),
		Status:        created.Status,
		BranchName:    created.BranchName,
		Method:        created.CheckInMethod,
		Warnings:      window.Warnings,
	}, nil
}

// locate applies the geofence when the schedule enforces location. Without
// enforcement the home branch is attributed and its distance kept for reference.
func (s *AttendanceServiceImpl) locate(ctx context.Context, res schedulesvc.Resolution, point geo.Point, accuracy *float64) (placement, error) {
	sched := res.Schedule
	var place placement

	if sched.HomeBranchID != nil {
		home, err := s.Branches.GetByID(ctx, *sched.HomeBranchID)
		switch {
		case err == nil:
			place.home = &home
			if c := home.Coordinate(); c != nil {
				d := geo.Distance(point, *c)
				place.homeDistance = &d
			}
		case errors.Is(err, branch.ErrBranchNotFound):
		default:
			return placement{}, fmt.Errorf("failed to load home branch: %w", err)
		}
	}

	if !sched.Mode.EnforcesLocation() || sched.RemoteCheckInAllowed {
		place.branch = place.home
		place.distance = place.homeDistance
		return place, nil
	}

	var (
		candidates []branch.Branch
		err        error
	)
	if sched.Branches.AnyBranch() {
		candidates, err = s.Branches.ListActive(ctx)
	} else {
		candidates, err = s.Branches.ListByIDs(ctx, sched.Branches.IDs)
		if err == nil && len(candidates) == 0 {
			return placement{}, attendance.ErrNoBranch
		}
	}
	if err != nil {
		return placement{}, fmt.Errorf("failed to load branches: %w", err)
	}

	policy := geofence.Policy{
		ToleranceMeters:   res.Settings.GeofenceToleranceMeters,
		AccuracyCapMeters: res.Settings.GPSAccuracyCapMeters,
	}
	decision, err := policy.Evaluate(point, candidates, sched.GeofenceRadiusMeters, accuracy)
	if err != nil {
		return placement{}, err
	}
	place.allowedMeters = decision.AllowedMeters
	if decision.Skipped {
		place.branch = place.home
		place.distance = place.homeDistance
		return place, nil
	}
	place.branch = decision.Branch
	place.distance = decision.DistanceMeters
	return place, nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, rc attendance.RequestContext, req attendance.Request) (attendance.CheckOutResponse, error) {
	if !rc.CSRFVerified {
		return attendance.CheckOutResponse{}, attendance.ErrCSRFInvalid
	}
	req.Action = attendance.ActionCheckOut
	if err := req.Validate(); err != nil {
		return attendance.CheckOutResponse{}, err
	}

	emp, err := s.activeEmployee(ctx, rc.EmployeeID)
	if err != nil {
		return attendance.CheckOutResponse{}, err
	}

	today := attendance.DateOf(rc.Now)
	res := s.Resolver.Resolve(ctx, emp, today)
	evaluator := timewindow.New(res.Schedule, res.Settings)

	var result timewindow.CheckOutResult
	completed, err := s.Ledger.CheckOut(ctx, emp.ID, today, func(open attendance.Record) (attendance.CheckOutUpdate, error) {
		r, err := evaluator.CheckOut(open.CheckInTime, rc.Now)
		if err != nil {
			return attendance.CheckOutUpdate{}, err
		}
		result = r
		return attendance.CheckOutUpdate{
			CheckOutTime:      rc.Now,
			CheckOutLatitude:  req.Latitude,
			CheckOutLongitude: req.Longitude,
			WorkMinutes:       r.WorkMinutes,
			EarlyLeaveMinutes: r.EarlyLeaveMinutes,
			OvertimeMinutes:   r.OvertimeMinutes,
			AdditionalPenalty: r.PenaltyPoints,
			BonusPoints:       r.BonusPoints,
		}, nil
	})
	if err != nil {
		var pe *attendance.PolicyError
		if errors.Is(err, attendance.ErrNoOpenCheckIn) || errors.As(err, &pe) {
			return attendance.CheckOutResponse{}, err
		}
		return attendance.CheckOutResponse{}, fmt.Errorf("failed to record check-out: %w", err)
	}

	s.submit("activity_log", func(ctx context.Context) error {
		return s.Activity.Create(ctx, activity.Entry{
			ID:           uuid.New(),
			EmployeeID:   rc.EmployeeID,
			UserID:       rc.UserID,
			Action:       activity.ActionCheckOut,
			AttendanceID: &completed.ID,
			Details: map[string]any{
				"work_minutes":        completed.WorkMinutes,
				"early_leave_minutes": completed.EarlyLeaveMinutes,
				"overtime_minutes":    completed.OvertimeMinutes,
				"bonus_points":        completed.BonusPoints.String(),
				"penalty_points":      completed.PenaltyPoints.String(),
				"warnings":            result.Warnings,
			},
			CreatedAt: rc.Now,
		})
	})

	checkOutTime := rc.Now
	if completed.CheckOutTime != nil {
		checkOutTime = *completed.CheckOutTime
	}
	return attendance.CheckOutResponse{
		Success:           true,
		Action:            attendance.ActionCheckOut,
		AttendanceID:      completed.ID,
		CheckInTime:       clock(completed.CheckInTime, rc.Now),
		CheckOutTime:      clock(checkOutTime, rc.Now),
		LateMinutes:       completed.LateMinutes,
		PenaltyPoints:     completed.PenaltyPoints.InexactFloat64(),
		Status:            completed.Status,
		BranchName:        completed.BranchName,
		WorkMinutes:       completed.WorkMinutes,
		OvertimeMinutes:   completed.OvertimeMinutes,
		EarlyLeaveMinutes: completed.EarlyLeaveMinutes,
		BonusPoints:       completed.BonusPoints.InexactFloat64(),
		NetPoints:         completed.BonusPoints.Sub(completed.PenaltyPoints).InexactFloat64(),
		PointsDelta:       result.BonusPoints.Sub(result.PenaltyPoints).InexactFloat64(),
		Warnings:          result.Warnings,
	}, nil
}

// Today implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Today(ctx context.Context, rc attendance.RequestContext) (attendance.TodayResponse, error) {
	emp, err := s.activeEmployee(ctx, rc.EmployeeID)
	if err != nil {
		return attendance.TodayResponse{}, err
	}

	today := attendance.DateOf(rc.Now)
	res := s.Resolver.Resolve(ctx, emp, today)
	sched := res.Schedule

	rec, err := s.Records.GetByEmployeeAndDate(ctx, emp.ID, today)
	if err != nil {
		return attendance.TodayResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	resp := attendance.TodayResponse{
		Success:      true,
		Date:         today.Format("2006-01-02"),
		PointBalance: emp.PointBalance.InexactFloat64(),
		Schedule: attendance.ScheduleSummary{
			Source:             string(sched.Source),
			Mode:               string(sched.Mode),
			WorkStart:          sched.WorkStart.String(),
			WorkEnd:            sched.WorkEnd.String(),
			GracePeriodMinutes: sched.GracePeriodMinutes,
			WorkingDay:         sched.WorkingDays.Contains(rc.Now.Weekday()),
			MinWorkingHours:    sched.MinWorkingHours,
		},
	}

	if rec == nil {
		_, err := timewindow.New(sched, res.Settings).CheckIn(rc.Now)
		resp.CanCheckIn = err == nil
		return resp, nil
	}

	checkIn := clock(rec.CheckInTime, rc.Now)
	status := rec.Status
	resp.HasCheckedIn = true
	resp.AttendanceID = &rec.ID
	resp.CheckInTime = &checkIn
	resp.Status = &status
	if rec.CheckOutTime != nil {
		checkOut := clock(*rec.CheckOutTime, rc.Now)
		resp.HasCheckedOut = true
		resp.CheckOutTime = &checkOut
	}
	resp.CanCheckOut = rec.Open()
	return resp, nil
}

// clock formats t as HH:MM in the zone of now; stored timestamps come back in UTC.
func clock(t, now time.Time) string {
	return t.In(now.Location()).Format(clockLayout)
}

func (s *AttendanceServiceImpl) activeEmployee(ctx context.Context, id int64) (employee.Employee, error) {
	emp, err := s.Employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, err
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if !emp.IsActive {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}

// afterCheckIn queues the best-effort work that follows a committed check-in.
func (s *AttendanceServiceImpl) afterCheckIn(rc attendance.RequestContext, req attendance.Request, rec attendance.Record, place placement, mode schedule.AttendanceMode, warnings []string) {
	s.submit("activity_log", func(ctx context.Context) error {
		return s.Activity.Create(ctx, activity.Entry{
			ID:           uuid.New(),
			EmployeeID:   rec.EmployeeID,
			UserID:       rc.UserID,
			Action:       activity.ActionCheckIn,
			AttendanceID: &rec.ID,
			Details: map[string]any{
				"mode":            mode,
				"status":          rec.Status,
				"late_minutes":    rec.LateMinutes,
				"penalty_points":  rec.PenaltyPoints.String(),
				"branch_id":       rec.BranchID,
				"distance_meters": rec.CheckInDistanceMeters,
				"method":          rec.CheckInMethod,
				"warnings":        warnings,
			},
			CreatedAt: rc.Now,
		})
	})

	if s.Anomaly != nil {
		sig := anomaly.Signals{
			EmployeeID:           rec.EmployeeID,
			AttendanceID:         rec.ID,
			Point:                req.Point(),
			Accuracy:             req.Accuracy,
			AutoCheckIn:          req.AutoCheckIn,
			DetectedBranchID:     req.DetectedBranchID,
			BranchID:             rec.BranchID,
			BranchDistanceMeters: place.distance,
			AllowedMeters:        place.allowedMeters,
			HomeDistanceMeters:   place.homeDistance,
			OccurredAt:           rc.Now,
		}
		if place.home != nil {
			sig.HomeBranchID = &place.home.ID
		}
		s.submit("anomaly_score", func(ctx context.Context) error {
			_, err := s.Anomaly.Evaluate(ctx, sig)
			return err
		})
	}

	if s.Traps != nil {
		s.submit("trap_trigger", func(ctx context.Context) error {
			return s.Traps.FireCheckIn(ctx, rec.EmployeeID, rec.ID, rec.CheckInTime)
		})
	}

	if s.Geocoder != nil {
		lat, lon := *req.Latitude, *req.Longitude
		s.submit("reverse_geocode", func(ctx context.Context) error {
			address, err := s.Geocoder.Reverse(ctx, lat, lon)
			if err != nil {
				s.Logger.DebugContext(ctx, "reverse geocoding failed", slog.Int64("attendance_id", rec.ID), slog.Any("error", err))
				return nil
			}
			if address == "" {
				return nil
			}
			return s.Records.SetCheckInAddress(ctx, rec.ID, address)
		})
	}
}

func (s *AttendanceServiceImpl) submit(name string, fn async.Task) {
	if s.Dispatcher == nil {
		return
	}
	s.Dispatcher.Submit(name, fn)
}
