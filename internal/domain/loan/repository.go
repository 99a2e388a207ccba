package loan

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the loan row for the duration of the
	// surrounding transaction. Every status-changing operation goes
	// through this read.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	Save(ctx context.Context, l *Loan) error
	// ListActiveByBorrowerAsset returns the active loans a collateral
	// position secures, used by the withdrawal ratio guard.
	ListActiveByBorrowerAsset(ctx context.Context, borrowerID, asset string) ([]Loan, error)
	// ListMaturedActive returns active loans whose maturity has passed,
	// candidates for the expiry sweep.
	ListMaturedActive(ctx context.Context, asOf time.Time) ([]Loan, error)
}
