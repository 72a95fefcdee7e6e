package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/anomaly"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/google/uuid"
)

type anomalyRepositoryImpl struct {
	db *database.DB
}

func NewAnomalyRepository(db *database.DB) anomaly.Repository {
	return &anomalyRepositoryImpl{db: db}
}

// Create implements anomaly.Repository.
func (r *anomalyRepositoryImpl) Create(ctx context.Context, ev anomaly.Event) error {
	q := GetQuerier(ctx, r.db)

	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	reasons := ev.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	payload, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("marshal anomaly reasons: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO anomaly_events (id, employee_id, attendance_id, score, reasons, latitude, longitude, accuracy)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)
	`, ev.ID, ev.EmployeeID, ev.AttendanceID, ev.Score, string(payload), ev.Latitude, ev.Longitude, ev.Accuracy)
	if err != nil {
		return fmt.Errorf("failed to create anomaly event: %w", err)
	}
	return nil
}
