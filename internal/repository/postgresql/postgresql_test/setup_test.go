package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// newTestDB connects to TEST_DATABASE_URL, migrates it and empties every table.
// The test is skipped when no database is configured.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn, database.PoolConfig{MaxConns: 30})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, database.RunMigrations(db))
	truncateAll(t, db)
	return db
}

func truncateAll(t *testing.T, db *database.DB) {
	t.Helper()

	tables := []string{
		"trap_triggers",
		"anomaly_events",
		"activity_logs",
		"attendance_records",
		"employee_schedules",
		"employees",
		"branches",
	}
	ctx := context.Background()
	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
		require.NoError(t, err, "truncate %s", table)
	}
}

func seedEmployee(t *testing.T, db *database.DB, balance string) int64 {
	t.Helper()

	var branchID, employeeID int64
	ctx := context.Background()
	err := db.QueryRow(ctx, `
		INSERT INTO branches (name, latitude, longitude, radius_meters)
		VALUES ('Head Office', -6.2, 106.816666, 20)
		RETURNING id
	`).Scan(&branchID)
	require.NoError(t, err)

	err = db.QueryRow(ctx, `
		INSERT INTO employees (full_name, branch_id, point_balance)
		VALUES ('Test Employee', $1, $2::numeric)
		RETURNING id
	`, branchID, balance).Scan(&employeeID)
	require.NoError(t, err)
	return employeeID
}
