package employee

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type EmployeeRepository interface {
	GetByID(ctx context.Context, id int64) (Employee, error)

	// AdjustPoints adds delta to the point balance, flooring the result at zero.
	// Returns the new balance.
	AdjustPoints(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error)

	MarkOnline(ctx context.Context, id int64, at time.Time) error
	MarkOffline(ctx context.Context, id int64, at time.Time) error

	// MarkIdleOffline flips employees whose last activity is before cutoff to offline.
	MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}
