package trap

import "context"

type Repository interface {
	Create(ctx context.Context, trigger Trigger) (Trigger, error)
}
