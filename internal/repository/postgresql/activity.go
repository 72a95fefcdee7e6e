package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/activity"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/google/uuid"
)

type activityRepositoryImpl struct {
	db *database.DB
}

func NewActivityRepository(db *database.DB) activity.Repository {
	return &activityRepositoryImpl{db: db}
}

// Create implements activity.Repository.
func (r *activityRepositoryImpl) Create(ctx context.Context, e activity.Entry) error {
	q := GetQuerier(ctx, r.db)

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal activity details: %w", err)
	}

	var userID *int64
	if e.UserID != 0 {
		userID = &e.UserID
	}

	_, err = q.Exec(ctx, `
		INSERT INTO activity_logs (id, employee_id, user_id, action, attendance_id, details)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
	`, e.ID, e.EmployeeID, userID, e.Action, e.AttendanceID, string(payload))
	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}
