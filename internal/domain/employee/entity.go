package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID             int64
	FullName       string
	BranchID       *int64
	IsActive       bool
	PointBalance   decimal.Decimal
	IsOnline       bool
	LastActivityAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
