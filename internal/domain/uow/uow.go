package uow

import (
	"context"

	"lendora-core/internal/domain/collateral"
	"lendora-core/internal/domain/liquidation"
	"lendora-core/internal/domain/loan"
	"lendora-core/internal/domain/params"
)

type Repos struct {
	Loans     loan.Repository
	Positions collateral.Repository
	Events    liquidation.Repository
	Params    params.Repository
}

// UnitOfWork is the all-or-nothing commit boundary of the protocol. Either
// every mutation inside fn is applied or none is.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx locks the loan row first and passes it in. The lock is
	// the per-loan exclusive transition token: concurrent repayments and
	// liquidation attempts on the same loan serialize here, while
	// operations on different loans proceed independently.
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
