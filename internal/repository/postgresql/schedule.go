package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type personalScheduleRepositoryImpl struct {
	db *database.DB
}

func NewPersonalScheduleRepository(db *database.DB) schedule.PersonalScheduleRepository {
	return &personalScheduleRepositoryImpl{db: db}
}

// GetActiveForEmployee implements schedule.PersonalScheduleRepository.
// When several overrides overlap the most recently created one wins.
func (r *personalScheduleRepositoryImpl) GetActiveForEmployee(ctx context.Context, employeeID int64, day time.Time) (*schedule.PersonalSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, attendance_mode, work_start_time, work_end_time,
			grace_period_minutes, working_days, allowed_branches, geofence_radius_meters,
			remote_checkin_allowed, min_working_hours::float8, max_working_hours::float8,
			early_checkin_minutes, late_checkout_allowed,
			late_penalty_rate::text, overtime_bonus_rate::text,
			is_active, effective_from, effective_until, created_at, updated_at
		FROM employee_schedules
		WHERE employee_id = $1
		  AND is_active = TRUE
		  AND (effective_from IS NULL OR effective_from <= $2::date)
		  AND (effective_until IS NULL OR effective_until >= $2::date)
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var (
		ps                     schedule.PersonalSchedule
		penaltyRate, bonusRate string
	)
	err := q.QueryRow(ctx, query, employeeID, dateParam(day)).Scan(
		&ps.ID,
		&ps.EmployeeID,
		&ps.Mode,
		&ps.WorkStartTime,
		&ps.WorkEndTime,
		&ps.GracePeriodMinutes,
		&ps.WorkingDays,
		&ps.AllowedBranches,
		&ps.GeofenceRadiusMeters,
		&ps.RemoteCheckInAllowed,
		&ps.MinWorkingHours,
		&ps.MaxWorkingHours,
		&ps.EarlyCheckInMinutes,
		&ps.LateCheckoutAllowed,
		&penaltyRate,
		&bonusRate,
		&ps.IsActive,
		&ps.EffectiveFrom,
		&ps.EffectiveUntil,
		&ps.CreatedAt,
		&ps.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get personal schedule for employee %d: %w", employeeID, err)
	}

	if ps.LatePenaltyRate, err = decimal.NewFromString(penaltyRate); err != nil {
		return nil, fmt.Errorf("parse late_penalty_rate: %w", err)
	}
	if ps.OvertimeBonusRate, err = decimal.NewFromString(bonusRate); err != nil {
		return nil, fmt.Errorf("parse overtime_bonus_rate: %w", err)
	}
	return &ps, nil
}
