package liquidation

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
	"lendora-core/internal/usecase/ledger"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture(collateralAmount uint64) (*memstore.Store, *oracle.StaticFeed, *Engine, *domainLoan.Loan) {
	store := memstore.New()
	feed := oracle.NewStaticFeed()
	feed.Set("ETH", oracle.PriceScale, testNow)
	svc := ledger.NewService(feed, time.Minute).WithClock(func() time.Time { return testNow })

	store.SeedPosition(collateral.Position{BorrowerID: "br1", Asset: "ETH", Amount: collateralAmount})
	l := &domainLoan.Loan{
		LoanID: "ln1", BorrowerID: "br1", CollateralAsset: "ETH",
		Outstanding: 100_000, Status: domainLoan.StatusActive,
	}
	store.SeedLoan(*l)
	return store, feed, NewEngine(svc), l
}

func evaluate(t *testing.T, store *memstore.Store, e *Engine, l *domainLoan.Loan, threshold, bonus uint64) (Decision, error) {
	t.Helper()
	var dec Decision
	err := store.WithinTx(context.Background(), func(r uow.Repos) error {
		var err error
		dec, err = e.Evaluate(context.Background(), r.Positions, l, threshold, bonus)
		return err
	})
	return dec, err
}

func TestEvaluate_HealthyAboveThreshold(t *testing.T) {
	store, _, engine, l := newFixture(125_000) // ratio 12500
	dec, err := evaluate(t, store, engine, l, 12000, 500)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if dec.Eligible {
		t.Fatal("healthy position marked eligible")
	}
	if dec.TriggerRatioBps != 12500 {
		t.Fatalf("ratio = %d, want 12500", dec.TriggerRatioBps)
	}
}

func TestEvaluate_EligibleBelowThreshold(t *testing.T) {
	store, _, engine, l := newFixture(115_000) // ratio 11500
	dec, err := evaluate(t, store, engine, l, 12000, 500)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !dec.Eligible {
		t.Fatal("undercollateralized position not eligible")
	}
	if dec.TriggerRatioBps != 11500 {
		t.Fatalf("ratio = %d, want 11500", dec.TriggerRatioBps)
	}
	// seize covers debt plus bonus: ceil(100000 x 10000 / 9500) = 105264
	if dec.SeizeAmount != 105_264 {
		t.Fatalf("seize = %d, want 105264", dec.SeizeAmount)
	}
	if dec.BonusAmount != 5_263 {
		t.Fatalf("bonus = %d, want 5263", dec.BonusAmount)
	}
	if dec.BorrowerRemainder != 115_000-105_264 {
		t.Fatalf("remainder = %d, want %d", dec.BorrowerRemainder, 115_000-105_264)
	}
	// invariant: seized value covers debt + bonus
	if dec.SeizeAmount < 100_000+dec.BonusAmount {
		t.Fatal("seizure does not cover debt plus bonus")
	}
}

func TestEvaluate_TerminalLoanIsNone(t *testing.T) {
	store, _, engine, l := newFixture(50_000)
	l.Status = domainLoan.StatusLiquidated
	dec, err := evaluate(t, store, engine, l, 12000, 500)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if dec.Eligible {
		t.Fatal("terminal loan marked eligible")
	}
}

func TestEvaluate_StalePriceFailsClosed(t *testing.T) {
	store, feed, engine, l := newFixture(50_000)
	feed.Set("ETH", oracle.PriceScale, testNow.Add(-time.Hour))
	_, err := evaluate(t, store, engine, l, 12000, 500)
	if !errors.Is(err, collateral.ErrStalePrice) {
		t.Fatalf("err = %v, want ErrStalePrice", err)
	}
}

func TestSplit_CapsAtFullCollateral(t *testing.T) {
	// position worth 50000 against a 100000 debt: everything is seized
	seize, bonus, remainder := Split(50_000, oracle.PriceScale, 100_000, 500)
	if seize != 50_000 || remainder != 0 {
		t.Fatalf("seize=%d remainder=%d, want full seizure", seize, remainder)
	}
	if bonus != 50_000*500/10000 {
		t.Fatalf("bonus = %d, want %d", bonus, 50_000*500/10000)
	}
}

func TestSplit_NoBonus(t *testing.T) {
	// the default path: bonus 0 seizes exactly the debt
	seize, bonus, remainder := Split(115_000, oracle.PriceScale, 100_000, 0)
	if seize != 100_000 {
		t.Fatalf("seize = %d, want 100000", seize)
	}
	if bonus != 0 {
		t.Fatalf("bonus = %d, want 0", bonus)
	}
	if remainder != 15_000 {
		t.Fatalf("remainder = %d, want 15000", remainder)
	}
}

func TestSplit_ZeroCollateral(t *testing.T) {
	seize, bonus, remainder := Split(0, oracle.PriceScale, 100_000, 500)
	if seize != 0 || bonus != 0 || remainder != 0 {
		t.Fatalf("zero collateral split = %d/%d/%d", seize, bonus, remainder)
	}
}
