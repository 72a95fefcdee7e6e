package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/trap"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

type trapRepositoryImpl struct {
	db *database.DB
}

func NewTrapRepository(db *database.DB) trap.Repository {
	return &trapRepositoryImpl{db: db}
}

// Create implements trap.Repository.
func (r *trapRepositoryImpl) Create(ctx context.Context, t trap.Trigger) (trap.Trigger, error) {
	q := GetQuerier(ctx, r.db)

	err := q.QueryRow(ctx, `
		INSERT INTO trap_triggers (employee_id, attendance_id, event, occurred_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, t.EmployeeID, t.AttendanceID, t.Event, t.OccurredAt).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return trap.Trigger{}, fmt.Errorf("failed to create trap trigger: %w", err)
	}
	return t, nil
}
