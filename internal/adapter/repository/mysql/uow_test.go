package mysql

import (
	"context"
	"errors"
	"testing"

	collateralDomain "lendora-core/internal/domain/collateral"
	loanDomain "lendora-core/internal/domain/loan"
	"lendora-core/internal/domain/uow"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, makeLoan("ln-commit", "br1", loanDomain.StatusActive)); err != nil {
			return err
		}
		return r.Positions.Create(ctx, &collateralDomain.Position{BorrowerID: "br1", Asset: "ETH", Amount: 10})
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}

	if _, err := NewLoanRepository(db).GetByLoanID(ctx, "ln-commit"); err != nil {
		t.Fatalf("loan not visible after commit: %v", err)
	}
	if _, err := NewPositionRepository(db).Get(ctx, "br1", "ETH"); err != nil {
		t.Fatalf("position not visible after commit: %v", err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)

	boom := errors.New("boom")
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, makeLoan("ln-rb", "br1", loanDomain.StatusActive)); err != nil {
			return err
		}
		if err := r.Positions.Create(ctx, &collateralDomain.Position{BorrowerID: "br1", Asset: "ETH", Amount: 10}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	// Nothing is visible: the commit boundary is all-or-nothing.
	if _, err := NewLoanRepository(db).GetByLoanID(ctx, "ln-rb"); !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("loan visible after rollback: %v", err)
	}
	if _, err := NewPositionRepository(db).Get(ctx, "br1", "ETH"); !errors.Is(err, collateralDomain.ErrNotFound) {
		t.Fatalf("position visible after rollback: %v", err)
	}
}

func TestGormUoW_WithinLoanTx_MutatesUnderLock(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	repo := NewLoanRepository(db)

	if err := repo.Create(ctx, makeLoan("ln-lock", "br1", loanDomain.StatusActive)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := guow.WithinLoanTx(ctx, "ln-lock", func(r uow.Repos, l *loanDomain.Loan) error {
		l.Outstanding -= 5000
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		t.Fatalf("WithinLoanTx: %v", err)
	}

	got, err := repo.GetByLoanID(ctx, "ln-lock")
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.Outstanding != 100_000 {
		t.Fatalf("outstanding = %d, want 100000", got.Outstanding)
	}
}

func TestGormUoW_WithinLoanTx_NotFound(t *testing.T) {
	db := openTestDB(t)
	guow := NewGormUoW(db)

	err := guow.WithinLoanTx(context.Background(), "missing", func(r uow.Repos, l *loanDomain.Loan) error {
		t.Fatal("fn must not run for a missing loan")
		return nil
	})
	if !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGormUoW_WithinLoanTx_RollbackRestoresLoan(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	repo := NewLoanRepository(db)

	if err := repo.Create(ctx, makeLoan("ln-rb2", "br1", loanDomain.StatusActive)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	boom := errors.New("boom")
	err := guow.WithinLoanTx(ctx, "ln-rb2", func(r uow.Repos, l *loanDomain.Loan) error {
		l.Status = loanDomain.StatusLiquidated
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	got, err := repo.GetByLoanID(ctx, "ln-rb2")
	if err != nil {
		t.Fatalf("GetByLoanID: %v", err)
	}
	if got.Status != loanDomain.StatusActive {
		t.Fatalf("status = %s, want active after rollback", got.Status)
	}
}
