package postgresql

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"

	constraintAttendanceEmployeeDate = "uq_attendance_employee_date"
)

// isUniqueViolation reports whether err is a unique violation on constraint.
// An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// dateParam formats the calendar date of t for a $n::date parameter.
func dateParam(t time.Time) string {
	return t.Format("2006-01-02")
}
