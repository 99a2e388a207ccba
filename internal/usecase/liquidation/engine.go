// Package liquidation decides when a position is seizable and how the
// proceeds split between debt, liquidator bonus, and borrower remainder.
package liquidation

import (
	"context"
	"math"
	"math/big"

	"lendora-core/internal/domain/collateral"
	"lendora-core/internal/domain/loan"
	"lendora-core/internal/oracle"
	"lendora-core/internal/usecase/ledger"
)

const bpsScale = 10000

// Decision is the outcome of evaluating one loan. A zero Decision means the
// position is healthy (or the loan already terminal) and nothing happens.
type Decision struct {
	Eligible        bool
	TriggerRatioBps uint64
	// SeizeAmount and BorrowerRemainder are in collateral units;
	// BonusAmount is in smallest currency units.
	SeizeAmount       uint64
	BonusAmount       uint64
	BorrowerRemainder uint64
}

type Engine struct {
	svc *ledger.Service
}

func NewEngine(svc *ledger.Service) *Engine {
	return &Engine{svc: svc}
}

// Evaluate computes the current ratio from a fresh quote and, when it is
// below thresholdBps, the payout split. A stale price surfaces as
// ErrStalePrice: the engine never liquidates on data it cannot trust, and
// the caller retries once the feed recovers. Must be called with the loan
// row locked; the ratio read here is the re-validation the commit relies on.
func (e *Engine) Evaluate(ctx context.Context, positions collateral.Repository, l *loan.Loan, thresholdBps, bonusBps uint64) (Decision, error) {
	if l.Status != loan.StatusActive {
		return Decision{}, nil
	}
	pos, err := positions.Get(ctx, l.BorrowerID, l.CollateralAsset)
	if err != nil {
		return Decision{}, err
	}
	q, err := e.svc.FreshQuote(ctx, l.CollateralAsset)
	if err != nil {
		return Decision{}, err
	}
	ratio := ledger.RatioBps(pos.Amount, q.Price, l.Outstanding)
	if ratio >= thresholdBps {
		return Decision{TriggerRatioBps: ratio}, nil
	}

	seize, bonus, remainder := Split(pos.Amount, q.Price, l.Outstanding, bonusBps)
	return Decision{
		Eligible:          true,
		TriggerRatioBps:   ratio,
		SeizeAmount:       seize,
		BonusAmount:       bonus,
		BorrowerRemainder: remainder,
	}, nil
}

// Split computes the liquidation payout for a position of collateralAmount
// units priced at price, against a debt in currency units. Seizure covers
// debt plus the liquidator bonus, capped at the full position; whatever
// collateral is left stays with the borrower.
//
//	seizeValue  = min(positionValue, debt x 10000 / (10000 - bonusBps))
//	bonus       = seizeValue x bonusBps / 10000
//
// The required value rounds up (under-seizing would leave debt uncovered);
// every other division truncates toward zero per the fixed-point convention.
func Split(collateralAmount, price, debt, bonusBps uint64) (seizeUnits, bonus, remainderUnits uint64) {
	if collateralAmount == 0 || price == 0 {
		return 0, 0, collateralAmount
	}
	if bonusBps >= bpsScale {
		bonusBps = bpsScale - 1
	}

	// Value required to cover debt + bonus, ceiling division.
	required := new(big.Int).SetUint64(debt)
	required.Mul(required, big.NewInt(bpsScale))
	required = ceilDiv(required, big.NewInt(int64(bpsScale-bonusBps)))

	// Collateral units needed to realize that value, ceiling division.
	needUnits := new(big.Int).Mul(required, big.NewInt(oracle.PriceScale))
	needUnits = ceilDiv(needUnits, new(big.Int).SetUint64(price))

	seize := new(big.Int).SetUint64(collateralAmount)
	if needUnits.Cmp(seize) < 0 {
		seize = needUnits
	}

	seizeValue := new(big.Int).Set(seize)
	seizeValue.Mul(seizeValue, new(big.Int).SetUint64(price))
	seizeValue.Quo(seizeValue, big.NewInt(oracle.PriceScale))

	bonusVal := new(big.Int).Set(seizeValue)
	bonusVal.Mul(bonusVal, new(big.Int).SetUint64(bonusBps))
	bonusVal.Quo(bonusVal, big.NewInt(bpsScale))

	seizeUnits = toUint64(seize)
	bonus = toUint64(bonusVal)
	remainderUnits = collateralAmount - seizeUnits
	return seizeUnits, bonus, remainderUnits
}

func ceilDiv(n, d *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(n, d, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func toUint64(n *big.Int) uint64 {
	if !n.IsUint64() {
		return math.MaxUint64
	}
	return n.Uint64()
}
