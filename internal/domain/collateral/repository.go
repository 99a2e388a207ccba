package collateral

import "context"

type Repository interface {
	Get(ctx context.Context, borrowerID, asset string) (*Position, error)
	// GetForUpdate locks the position row for the surrounding transaction.
	GetForUpdate(ctx context.Context, borrowerID, asset string) (*Position, error)
	Create(ctx context.Context, p *Position) error
	Save(ctx context.Context, p *Position) error
	ListByBorrower(ctx context.Context, borrowerID string) ([]Position, error)
}
