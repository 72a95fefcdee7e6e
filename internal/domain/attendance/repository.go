package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// GetByEmployeeAndDate returns nil when the employee has no record for date.
	GetByEmployeeAndDate(ctx context.Context, employeeID int64, date time.Time) (*Record, error)

	// Create inserts a checked-in record. A losing concurrent insert returns ErrDuplicateCheckIn.
	Create(ctx context.Context, record Record) (Record, error)

	// GetOpenForUpdate locks the open record of the employee for date,
	// returning ErrNoOpenCheckIn when there is none.
	GetOpenForUpdate(ctx context.Context, employeeID int64, date time.Time) (Record, error)

	// CompleteCheckOut writes the check-out values and locks the record.
	// It returns ErrNoOpenCheckIn when the record was already completed.
	CompleteCheckOut(ctx context.Context, id int64, update CheckOutUpdate) (Record, error)

	SetCheckInAddress(ctx context.Context, id int64, address string) error
}
