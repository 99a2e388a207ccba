package mysql

import (
	"context"
	"errors"
	"strings"

	"lendora-core/internal/domain/loan"
	"lendora-core/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:     &LoanRepository{db: tx},
		Positions: &PositionRepository{db: tx},
		Events:    &EventRepository{db: tx},
		Params:    &ParamsRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

// WithinLoanTx locks the loan row up-front; the lock is released on commit
// or rollback, serializing all status changes for one loan.
func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return translateLockErr(err)
		}
		return fn(r, l)
	})
}

// translateLockErr maps the driver's lock-wait timeout (mysql error 1205)
// onto the retryable conflict sentinel; anything else passes through.
func translateLockErr(err error) error {
	if errors.Is(err, loan.ErrNotFound) {
		return err
	}
	if strings.Contains(err.Error(), "Error 1205") || strings.Contains(err.Error(), "Lock wait timeout") {
		return loan.ErrConcurrencyConflict
	}
	return err
}
