package branch

import "context"

// BranchRepository is read-only here; branches are maintained by the admin console.
type BranchRepository interface {
	GetByID(ctx context.Context, id int64) (Branch, error)
	ListActive(ctx context.Context) ([]Branch, error)
	// ListByIDs returns the active branches among ids, in the order of ids.
	ListByIDs(ctx context.Context, ids []int64) ([]Branch, error)
}
