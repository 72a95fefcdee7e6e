package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/master/branch"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type branchRepositoryImpl struct {
	db *database.DB
}

func NewBranchRepository(db *database.DB) branch.BranchRepository {
	return &branchRepositoryImpl{db: db}
}

const branchColumns = `id, name, latitude, longitude, radius_meters, is_active`

func scanBranch(row pgx.Row) (branch.Branch, error) {
	var b branch.Branch
	err := row.Scan(&b.ID, &b.Name, &b.Latitude, &b.Longitude, &b.RadiusMeters, &b.IsActive)
	return b, err
}

// GetByID implements branch.BranchRepository.
func (r *branchRepositoryImpl) GetByID(ctx context.Context, id int64) (branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + branchColumns + ` FROM branches WHERE id = $1`

	b, err := scanBranch(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return branch.Branch{}, branch.ErrBranchNotFound
		}
		return branch.Branch{}, fmt.Errorf("failed to get branch by id %d: %w", id, err)
	}
	return b, nil
}

// ListActive implements branch.BranchRepository.
func (r *branchRepositoryImpl) ListActive(ctx context.Context) ([]branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + branchColumns + `
		FROM branches
		WHERE is_active = TRUE
		ORDER BY id ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active branches: %w", err)
	}
	defer rows.Close()

	var branches []branch.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate branches: %w", err)
	}
	return branches, nil
}

// ListByIDs implements branch.BranchRepository.
func (r *branchRepositoryImpl) ListByIDs(ctx context.Context, ids []int64) ([]branch.Branch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + branchColumns + `
		FROM branches
		WHERE is_active = TRUE AND id = ANY($1)
		ORDER BY array_position($1, id)
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches by ids: %w", err)
	}
	defer rows.Close()

	var branches []branch.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate branches: %w", err)
	}
	return branches, nil
}
