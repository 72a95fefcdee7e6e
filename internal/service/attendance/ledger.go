package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
)

// Transactor runs fn inside one database transaction carried by the ctx passed to fn.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Ledger is the only writer of attendance records and point balances.
type Ledger struct {
	tx        Transactor
	records   attendance.AttendanceRepository
	employees employee.EmployeeRepository
}

func NewLedger(tx Transactor, records attendance.AttendanceRepository, employees employee.EmployeeRepository) *Ledger {
	return &Ledger{tx: tx, records: records, employees: employees}
}

// CheckIn stores record, charges its penalty and marks the employee online, atomically.
// The unique (employee, date) constraint decides concurrent attempts; the read before
// the insert only gives the common case a cheaper answer.
func (l *Ledger) CheckIn(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	var created attendance.Record

	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := l.records.GetByEmployeeAndDate(ctx, record.EmployeeID, record.AttendanceDate)
		if err != nil {
			return fmt.Errorf("check existing attendance: %w", err)
		}
		if existing != nil {
			return attendance.ErrDuplicateCheckIn
		}

		created, err = l.records.Create(ctx, record)
		if err != nil {
			return err
		}

		if record.PenaltyPoints.IsPositive() {
			if _, err := l.employees.AdjustPoints(ctx, record.EmployeeID, record.PenaltyPoints.Neg()); err != nil {
				return fmt.Errorf("apply late penalty: %w", err)
			}
		}

		if err := l.employees.MarkOnline(ctx, record.EmployeeID, record.CheckInTime); err != nil {
			return fmt.Errorf("mark employee online: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return created, nil
}

// CheckOutFunc derives the check-out values from the locked open record.
// Returning an error aborts the check-out without any write.
type CheckOutFunc func(open attendance.Record) (attendance.CheckOutUpdate, error)

// CheckOut completes today's open record of the employee. The record row stays
// locked from the read until commit, so two check-outs cannot both succeed.
func (l *Ledger) CheckOut(ctx context.Context, employeeID int64, date time.Time, compute CheckOutFunc) (attendance.Record, error) {
	var completed attendance.Record

	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		open, err := l.records.GetOpenForUpdate(ctx, employeeID, date)
		if err != nil {
			return err
		}

		update, err := compute(open)
		if err != nil {
			return err
		}

		completed, err = l.records.CompleteCheckOut(ctx, open.ID, update)
		if err != nil {
			return err
		}

		if delta := update.BonusPoints.Sub(update.AdditionalPenalty); !delta.IsZero() {
			if _, err := l.employees.AdjustPoints(ctx, employeeID, delta); err != nil {
				return fmt.Errorf("apply check-out points: %w", err)
			}
		}

		if err := l.employees.MarkOffline(ctx, employeeID, update.CheckOutTime); err != nil {
			return fmt.Errorf("mark employee offline: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return completed, nil
}
