package attendance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/activity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/anomaly"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/master/branch"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/async"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/geo"
	anomalysvc "github.com/cmlabs-hris/hris-attendance-go/internal/service/anomaly"
	schedulesvc "github.com/cmlabs-hris/hris-attendance-go/internal/service/schedule"
	"github.com/shopspring/decimal"
)

func ptr[T any](v T) *T { return &v }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// metersNorth is the latitude lying m meters north of the equator.
func metersNorth(m float64) float64 {
	return m / geo.EarthRadiusMeters * 180 / math.Pi
}

var jakarta = time.FixedZone("WIB", 7*3600)

func monday(hh, mm int) time.Time {
	return time.Date(2024, 5, 6, hh, mm, 0, 0, jakarta)
}

// memStore keeps records and employees in memory. Create enforces the
// (employee, date) uniqueness atomically like the database constraint.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	records   map[int64]*attendance.Record
	employees map[int64]*employee.Employee
	createErr error
	addresses map[int64]string
}

func newMemStore(emps ...employee.Employee) *memStore {
	s := &memStore{
		records:   make(map[int64]*attendance.Record),
		employees: make(map[int64]*employee.Employee),
		addresses: make(map[int64]string),
	}
	for _, e := range emps {
		e := e
		s.employees[e.ID] = &e
	}
	return s
}

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func (s *memStore) find(employeeID int64, date time.Time) *attendance.Record {
	for _, r := range s.records {
		if r.EmployeeID == employeeID && sameDate(r.AttendanceDate, date) {
			return r
		}
	}
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *memStore) balance(id int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.employees[id].PointBalance
}

type recordRepo struct{ *memStore }

func (r recordRepo) GetByEmployeeAndDate(ctx context.Context, employeeID int64, date time.Time) (*attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec := r.find(employeeID, date); rec != nil {
		c := *rec
		return &c, nil
	}
	return nil, nil
}

func (r recordRepo) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return attendance.Record{}, r.createErr
	}
	if r.find(rec.EmployeeID, rec.AttendanceDate) != nil {
		return attendance.Record{}, attendance.ErrDuplicateCheckIn
	}
	r.nextID++
	rec.ID = r.nextID
	c := rec
	r.records[rec.ID] = &c
	return rec, nil
}

func (r recordRepo) GetOpenForUpdate(ctx context.Context, employeeID int64, date time.Time) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.find(employeeID, date)
	if rec == nil || !rec.Open() {
		return attendance.Record{}, attendance.ErrNoOpenCheckIn
	}
	return *rec, nil
}

func (r recordRepo) CompleteCheckOut(ctx context.Context, id int64, u attendance.CheckOutUpdate) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || !rec.Open() {
		return attendance.Record{}, attendance.ErrNoOpenCheckIn
	}
	at := u.CheckOutTime
	rec.CheckOutTime = &at
	rec.CheckOutLatitude = u.CheckOutLatitude
	rec.CheckOutLongitude = u.CheckOutLongitude
	rec.WorkMinutes = u.WorkMinutes
	rec.EarlyLeaveMinutes = u.EarlyLeaveMinutes
	rec.OvertimeMinutes = u.OvertimeMinutes
	rec.PenaltyPoints = rec.PenaltyPoints.Add(u.AdditionalPenalty)
	rec.BonusPoints = u.BonusPoints
	rec.IsLocked = true
	return *rec, nil
}

func (r recordRepo) SetCheckInAddress(ctx context.Context, id int64, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses[id] = address
	return nil
}

type employeeRepo struct{ *memStore }

func (e employeeRepo) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	emp, ok := e.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return *emp, nil
}

func (e employeeRepo) AdjustPoints(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	emp := e.employees[id]
	next := emp.PointBalance.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	emp.PointBalance = next
	return next, nil
}

func (e employeeRepo) MarkOnline(ctx context.Context, id int64, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.employees[id].IsOnline = true
	e.employees[id].LastActivityAt = &at
	return nil
}

func (e employeeRepo) MarkOffline(ctx context.Context, id int64, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.employees[id].IsOnline = false
	e.employees[id].LastActivityAt = &at
	return nil
}

func (e employeeRepo) MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// passTx runs fn directly; the fakes do their own locking.
type passTx struct{}

func (passTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type branchRepo struct {
	branches []branch.Branch
}

func (b branchRepo) GetByID(ctx context.Context, id int64) (branch.Branch, error) {
	for _, br := range b.branches {
		if br.ID == id {
			return br, nil
		}
	}
	return branch.Branch{}, branch.ErrBranchNotFound
}

func (b branchRepo) ListActive(ctx context.Context) ([]branch.Branch, error) {
	var out []branch.Branch
	for _, br := range b.branches {
		if br.IsActive {
			out = append(out, br)
		}
	}
	return out, nil
}

func (b branchRepo) ListByIDs(ctx context.Context, ids []int64) ([]branch.Branch, error) {
	var out []branch.Branch
	for _, id := range ids {
		for _, br := range b.branches {
			if br.ID == id && br.IsActive {
				out = append(out, br)
			}
		}
	}
	return out, nil
}

type staticResolver struct {
	res schedulesvc.Resolution
}

func (s staticResolver) Resolve(ctx context.Context, emp employee.Employee, today time.Time) schedulesvc.Resolution {
	r := s.res
	if r.Schedule.HomeBranchID == nil {
		r.Schedule.HomeBranchID = emp.BranchID
	}
	return r
}

// syncDispatcher runs tasks inline and remembers their names.
type syncDispatcher struct {
	mu    sync.Mutex
	names []string
	errs  []error
}

func (d *syncDispatcher) Submit(name string, fn async.Task) bool {
	err := fn(context.Background())
	d.mu.Lock()
	d.names = append(d.names, name)
	d.errs = append(d.errs, err)
	d.mu.Unlock()
	return true
}

type activityRepo struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (a *activityRepo) Create(ctx context.Context, e activity.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

type anomalyRecorder struct {
	signals []anomaly.Signals
}

func (a *anomalyRecorder) Evaluate(ctx context.Context, sig anomaly.Signals) (anomalysvc.Assessment, error) {
	a.signals = append(a.signals, sig)
	return anomalysvc.Score(sig), nil
}

type trapRecorder struct {
	fired []int64
	err   error
}

func (t *trapRecorder) FireCheckIn(ctx context.Context, employeeID, attendanceID int64, at time.Time) error {
	if t.err != nil {
		return t.err
	}
	t.fired = append(t.fired, attendanceID)
	return nil
}

type fakeGeocoder struct {
	address string
	err     error
}

func (g fakeGeocoder) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	return g.address, g.err
}

var errStorage = errors.New("storage unavailable")
