package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

const attendanceColumns = `
	a.id, a.employee_id, a.branch_id, a.attendance_date,
	a.check_in_time, a.check_in_latitude, a.check_in_longitude, a.check_in_accuracy,
	a.check_in_distance_meters, a.check_in_method, a.check_in_address,
	a.check_out_time, a.check_out_latitude, a.check_out_longitude,
	a.late_minutes, a.early_leave_minutes, a.overtime_minutes, a.work_minutes,
	a.penalty_points::text, a.bonus_points::text, a.status, a.is_locked,
	a.created_at, a.updated_at, b.name`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var (
		rec            attendance.Record
		penalty, bonus string
		method, status string
	)
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.BranchID, &rec.AttendanceDate,
		&rec.CheckInTime, &rec.CheckInLatitude, &rec.CheckInLongitude, &rec.CheckInAccuracy,
		&rec.CheckInDistanceMeters, &method, &rec.CheckInAddress,
		&rec.CheckOutTime, &rec.CheckOutLatitude, &rec.CheckOutLongitude,
		&rec.LateMinutes, &rec.EarlyLeaveMinutes, &rec.OvertimeMinutes, &rec.WorkMinutes,
		&penalty, &bonus, &status, &rec.IsLocked,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.BranchName,
	)
	if err != nil {
		return attendance.Record{}, err
	}
	rec.CheckInMethod = attendance.Method(method)
	rec.Status = attendance.Status(status)
	if rec.PenaltyPoints, err = decimal.NewFromString(penalty); err != nil {
		return attendance.Record{}, fmt.Errorf("parse penalty_points: %w", err)
	}
	if rec.BonusPoints, err = decimal.NewFromString(bonus); err != nil {
		return attendance.Record{}, fmt.Errorf("parse bonus_points: %w", err)
	}
	return rec, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID int64, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records a
		LEFT JOIN branches b ON b.id = a.branch_id
		WHERE a.employee_id = $1 AND a.attendance_date = $2::date
		LIMIT 1
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, dateParam(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}
	return &rec, nil
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (
			employee_id, branch_id, attendance_date,
			check_in_time, check_in_latitude, check_in_longitude, check_in_accuracy,
			check_in_distance_meters, check_in_method,
			late_minutes, penalty_points, status
		) VALUES (
			$1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11::numeric, $12
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.EmployeeID,
		rec.BranchID,
		dateParam(rec.AttendanceDate),
		rec.CheckInTime,
		rec.CheckInLatitude,
		rec.CheckInLongitude,
		rec.CheckInAccuracy,
		rec.CheckInDistanceMeters,
		string(rec.CheckInMethod),
		rec.LateMinutes,
		rec.PenaltyPoints.StringFixed(2),
		string(rec.Status),
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintAttendanceEmployeeDate) {
			return attendance.Record{}, attendance.ErrDuplicateCheckIn
		}
		return attendance.Record{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	rec.BonusPoints = decimal.Zero
	return rec, nil
}

// GetOpenForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetOpenForUpdate(ctx context.Context, employeeID int64, date time.Time) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records a
		LEFT JOIN branches b ON b.id = a.branch_id
		WHERE a.employee_id = $1
		  AND a.attendance_date = $2::date
		  AND a.check_out_time IS NULL
		  AND a.is_locked = FALSE
		FOR UPDATE OF a
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, dateParam(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrNoOpenCheckIn
		}
		return attendance.Record{}, fmt.Errorf("failed to get open attendance: %w", err)
	}
	return rec, nil
}

// CompleteCheckOut implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) CompleteCheckOut(ctx context.Context, id int64, u attendance.CheckOutUpdate) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_records
		SET check_out_time = $2,
			check_out_latitude = $3,
			check_out_longitude = $4,
			work_minutes = $5,
			early_leave_minutes = $6,
			overtime_minutes = $7,
			penalty_points = penalty_points + $8::numeric,
			bonus_points = $9::numeric,
			is_locked = TRUE,
			updated_at = NOW()
		WHERE id = $1 AND check_out_time IS NULL
	`

	tag, err := q.Exec(ctx, query,
		id,
		u.CheckOutTime,
		u.CheckOutLatitude,
		u.CheckOutLongitude,
		u.WorkMinutes,
		u.EarlyLeaveMinutes,
		u.OvertimeMinutes,
		u.AdditionalPenalty.StringFixed(2),
		u.BonusPoints.StringFixed(2),
	)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to complete check-out: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.Record{}, attendance.ErrNoOpenCheckIn
	}

	selectQuery := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records a
		LEFT JOIN branches b ON b.id = a.branch_id
		WHERE a.id = $1
	`
	rec, err := scanRecord(q.QueryRow(ctx, selectQuery, id))
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to reload attendance: %w", err)
	}
	return rec, nil
}

// SetCheckInAddress implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) SetCheckInAddress(ctx context.Context, id int64, address string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE attendance_records
		SET check_in_address = $2, updated_at = NOW()
		WHERE id = $1
	`, id, address)
	if err != nil {
		return fmt.Errorf("failed to set check-in address: %w", err)
	}
	return nil
}
