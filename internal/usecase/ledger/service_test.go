package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"lendora-core/internal/domain/collateral"
	domainLoan "lendora-core/internal/domain/loan"
	"lendora-core/internal/domain/uow"
	"lendora-core/internal/oracle"
	"lendora-core/internal/testutil/memstore"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(feed oracle.Feed) *Service {
	return NewService(feed, time.Minute).WithClock(func() time.Time { return testNow })
}

func TestRatioBps(t *testing.T) {
	cases := []struct {
		name                       string
		amount, price, outstanding uint64
		want                       uint64
	}{
		{"one-to-one", 150_000, oracle.PriceScale, 100_000, 15000},
		{"priced asset", 10, 2500 * oracle.PriceScale, 20_000, 12500},
		{"truncates", 1, oracle.PriceScale, 3, 3333},
		{"zero collateral", 0, oracle.PriceScale, 100, 0},
		{"zero outstanding", 5, oracle.PriceScale, 0, RatioUnbounded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RatioBps(tc.amount, tc.price, tc.outstanding); got != tc.want {
				t.Fatalf("RatioBps = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFreshQuote_FailsClosed(t *testing.T) {
	feed := oracle.NewStaticFeed()
	svc := newService(feed)
	ctx := context.Background()

	// no reference at all
	_, err := svc.FreshQuote(ctx, "ETH")
	if !errors.Is(err, collateral.ErrStalePrice) {
		t.Fatalf("missing quote err = %v, want ErrStalePrice", err)
	}

	// older than the freshness window
	feed.Set("ETH", oracle.PriceScale, testNow.Add(-2*time.Minute))
	_, err = svc.FreshQuote(ctx, "ETH")
	if !errors.Is(err, collateral.ErrStalePrice) {
		t.Fatalf("stale quote err = %v, want ErrStalePrice", err)
	}

	// fresh again
	feed.Set("ETH", oracle.PriceScale, testNow.Add(-30*time.Second))
	if _, err := svc.FreshQuote(ctx, "ETH"); err != nil {
		t.Fatalf("fresh quote err = %v", err)
	}
}

func TestPost(t *testing.T) {
	store := memstore.New()
	svc := newService(oracle.NewStaticFeed())
	ctx := context.Background()

	err := store.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := svc.Post(ctx, r.Positions, "br1", "ETH", 0); !errors.Is(err, collateral.ErrInvalidAmount) {
			t.Fatalf("zero amount err = %v, want ErrInvalidAmount", err)
		}
		if _, err := svc.Post(ctx, r.Positions, "br1", "ETH", 100); err != nil {
			return err
		}
		pos, err := svc.Post(ctx, r.Positions, "br1", "ETH", 50)
		if err != nil {
			return err
		}
		if pos.Amount != 150 {
			t.Fatalf("amount = %d, want 150", pos.Amount)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func TestWithdraw_Guards(t *testing.T) {
	store := memstore.New()
	feed := oracle.NewStaticFeed()
	feed.Set("ETH", oracle.PriceScale, testNow)
	svc := newService(feed)
	ctx := context.Background()

	store.SeedPosition(collateral.Position{BorrowerID: "br1", Asset: "ETH", Amount: 160_000})
	store.SeedLoan(domainLoan.Loan{
		LoanID: "ln1", BorrowerID: "br1", CollateralAsset: "ETH",
		Outstanding: 100_000, Status: domainLoan.StatusActive,
	})

	// more than the balance
	err := store.WithinTx(ctx, func(r uow.Repos) error {
		_, err := svc.Withdraw(ctx, r, 15000, "br1", "ETH", 200_000)
		return err
	})
	if !errors.Is(err, collateral.ErrInsufficientCollateral) {
		t.Fatalf("err = %v, want ErrInsufficientCollateral", err)
	}

	// would drop the active loan's ratio from 16000 to 14000
	err = store.WithinTx(ctx, func(r uow.Repos) error {
		_, err := svc.Withdraw(ctx, r, 15000, "br1", "ETH", 20_000)
		return err
	})
	if !errors.Is(err, collateral.ErrBelowMinimumRatio) {
		t.Fatalf("err = %v, want ErrBelowMinimumRatio", err)
	}
	// the rejected withdrawal must not have touched the ledger
	if pos, _ := store.Position("br1", "ETH"); pos.Amount != 160_000 {
		t.Fatalf("position mutated on rejection: %d", pos.Amount)
	}

	// a withdrawal that keeps the ratio at the minimum passes
	err = store.WithinTx(ctx, func(r uow.Repos) error {
		_, err := svc.Withdraw(ctx, r, 15000, "br1", "ETH", 10_000)
		return err
	})
	if err != nil {
		t.Fatalf("valid withdraw: %v", err)
	}
	if pos, _ := store.Position("br1", "ETH"); pos.Amount != 150_000 {
		t.Fatalf("amount = %d, want 150000", pos.Amount)
	}
}

func TestWithdraw_StalePriceBlocksWhenLoansSecured(t *testing.T) {
	store := memstore.New()
	feed := oracle.NewStaticFeed()
	feed.Set("ETH", oracle.PriceScale, testNow.Add(-time.Hour))
	svc := newService(feed)
	ctx := context.Background()

	store.SeedPosition(collateral.Position{BorrowerID: "br1", Asset: "ETH", Amount: 160_000})
	store.SeedLoan(domainLoan.Loan{
		LoanID: "ln1", BorrowerID: "br1", CollateralAsset: "ETH",
		Outstanding: 100_000, Status: domainLoan.StatusActive,
	})

	err := store.WithinTx(ctx, func(r uow.Repos) error {
		_, err := svc.Withdraw(ctx, r, 15000, "br1", "ETH", 1)
		return err
	})
	if !errors.Is(err, collateral.ErrStalePrice) {
		t.Fatalf("err = %v, want ErrStalePrice", err)
	}
}

func TestWithdraw_NoActiveLoansNeedsNoQuote(t *testing.T) {
	store := memstore.New()
	svc := newService(oracle.NewStaticFeed()) // empty feed
	ctx := context.Background()

	store.SeedPosition(collateral.Position{BorrowerID: "br1", Asset: "ETH", Amount: 500})

	err := store.WithinTx(ctx, func(r uow.Repos) error {
		pos, err := svc.Withdraw(ctx, r, 15000, "br1", "ETH", 500)
		if err != nil {
			return err
		}
		if pos.Amount != 0 {
			t.Fatalf("amount = %d, want 0", pos.Amount)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
}

func TestSeizeAndRelease(t *testing.T) {
	store := memstore.New()
	svc := newService(oracle.NewStaticFeed())
	ctx := context.Background()

	store.SeedPosition(collateral.Position{BorrowerID: "br1", Asset: "ETH", Amount: 100})

	err := store.WithinTx(ctx, func(r uow.Repos) error {
		return svc.Seize(ctx, r.Positions, "br1", "ETH", 60)
	})
	if err != nil {
		t.Fatalf("seize: %v", err)
	}
	if pos, _ := store.Position("br1", "ETH"); pos.Amount != 40 {
		t.Fatalf("amount after seize = %d, want 40", pos.Amount)
	}

	// seizing more than held is an internal error, not a business rejection
	err = store.WithinTx(ctx, func(r uow.Repos) error {
		return svc.Seize(ctx, r.Positions, "br1", "ETH", 41)
	})
	if err == nil {
		t.Fatal("over-seize accepted")
	}

	var released uint64
	err = store.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		released, err = svc.Release(ctx, r.Positions, "br1", "ETH")
		return err
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released != 40 {
		t.Fatalf("released = %d, want 40", released)
	}
	if pos, _ := store.Position("br1", "ETH"); pos.Amount != 0 {
		t.Fatalf("amount after release = %d, want 0", pos.Amount)
	}
}
