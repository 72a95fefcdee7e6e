package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id int64) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, full_name, branch_id, is_active, point_balance::text,
			is_online, last_activity_at, created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	var (
		emp     employee.Employee
		balance string
	)
	err := q.QueryRow(ctx, query, id).Scan(
		&emp.ID,
		&emp.FullName,
		&emp.BranchID,
		&emp.IsActive,
		&balance,
		&emp.IsOnline,
		&emp.LastActivityAt,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by id %d: %w", id, err)
	}

	emp.PointBalance, err = decimal.NewFromString(balance)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("parse point_balance: %w", err)
	}
	return emp, nil
}

// AdjustPoints implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) AdjustPoints(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET point_balance = GREATEST(point_balance + $2::numeric, 0),
			updated_at = NOW()
		WHERE id = $1
		RETURNING point_balance::text
	`

	var balance string
	if err := q.QueryRow(ctx, query, id, delta.StringFixed(2)).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, employee.ErrEmployeeNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to adjust points: %w", err)
	}

	newBalance, err := decimal.NewFromString(balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse point_balance: %w", err)
	}
	return newBalance, nil
}

// MarkOnline implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) MarkOnline(ctx context.Context, id int64, at time.Time) error {
	return r.setPresence(ctx, id, true, at)
}

// MarkOffline implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) MarkOffline(ctx context.Context, id int64, at time.Time) error {
	return r.setPresence(ctx, id, false, at)
}

func (r *employeeRepositoryImpl) setPresence(ctx context.Context, id int64, online bool, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE employees
		SET is_online = $2, last_activity_at = $3, updated_at = NOW()
		WHERE id = $1
	`, id, online, at)
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// MarkIdleOffline implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) MarkIdleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE employees
		SET is_online = FALSE, updated_at = NOW()
		WHERE is_online = TRUE
		  AND (last_activity_at IS NULL OR last_activity_at < $1)
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark idle employees offline: %w", err)
	}
	return tag.RowsAffected(), nil
}
