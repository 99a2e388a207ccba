package liquidation

import "context"

type Repository interface {
	Create(ctx context.Context, e *Event) error
	ListByLoanID(ctx context.Context, loanID string) ([]Event, error)
}
