package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"lendora-core/internal/domain/collateral"
	"lendora-core/internal/domain/uow"
	"lendora-core/internal/oracle"
)

// RatioUnbounded is returned for a fully repaid outstanding balance: with
// nothing owed, any collateral level is acceptable.
const RatioUnbounded = math.MaxUint64

const bpsScale = 10000

// Service implements the collateral ledger rules. Its methods take the
// repositories bound to the caller's transaction, so the loan manager can run
// ledger operations inside its own commit boundary.
type Service struct {
	feed      oracle.Feed
	freshness time.Duration
	now       func() time.Time
}

func NewService(feed oracle.Feed, freshness time.Duration) *Service {
	return &Service{feed: feed, freshness: freshness, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// FreshQuote returns the latest price for the asset, failing closed with
// ErrStalePrice when the reference is missing or older than the freshness
// window.
func (s *Service) FreshQuote(ctx context.Context, asset string) (oracle.Quote, error) {
	q, err := s.feed.Quote(ctx, asset)
	if errors.Is(err, oracle.ErrUnknownAsset) {
		return oracle.Quote{}, fmt.Errorf("%w: no quote for %s", collateral.ErrStalePrice, asset)
	}
	if err != nil {
		return oracle.Quote{}, err
	}
	if s.now().Sub(q.ObservedAt) > s.freshness {
		return oracle.Quote{}, fmt.Errorf("%w: %s quote observed at %s", collateral.ErrStalePrice, asset, q.ObservedAt.Format(time.RFC3339))
	}
	return q, nil
}

// RatioBps computes the collateralization ratio in basis points:
// amount x price x 10000 / (outstanding x PriceScale), truncating toward
// zero. Pure function; big.Int intermediates avoid overflow.
func RatioBps(amount, price, outstanding uint64) uint64 {
	if outstanding == 0 {
		return RatioUnbounded
	}
	n := new(big.Int).SetUint64(amount)
	n.Mul(n, new(big.Int).SetUint64(price))
	n.Mul(n, big.NewInt(bpsScale))
	d := new(big.Int).SetUint64(outstanding)
	d.Mul(d, big.NewInt(oracle.PriceScale))
	n.Quo(n, d)
	if !n.IsUint64() {
		return RatioUnbounded
	}
	return n.Uint64()
}

// Post increases a borrower's position, creating it on first use.
func (s *Service) Post(ctx context.Context, positions collateral.Repository, borrowerID, asset string, amount uint64) (*collateral.Position, error) {
	if amount == 0 {
		return nil, collateral.ErrInvalidAmount
	}
	pos, err := positions.GetForUpdate(ctx, borrowerID, asset)
	switch {
	case errors.Is(err, collateral.ErrNotFound):
		pos = &collateral.Position{BorrowerID: borrowerID, Asset: asset, Amount: amount}
		if err := positions.Create(ctx, pos); err != nil {
			return nil, err
		}
		return pos, nil
	case err != nil:
		return nil, err
	}
	pos.Amount += amount
	if err := positions.Save(ctx, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// Withdraw decreases a position after checking that every active loan the
// position secures would stay at or above minRatioBps. The checks and the
// decrement run inside one transaction, so a rejected withdrawal leaves the
// ledger untouched.
func (s *Service) Withdraw(ctx context.Context, r uow.Repos, minRatioBps uint64, borrowerID, asset string, amount uint64) (*collateral.Position, error) {
	if amount == 0 {
		return nil, collateral.ErrInvalidAmount
	}
	pos, err := r.Positions.GetForUpdate(ctx, borrowerID, asset)
	if errors.Is(err, collateral.ErrNotFound) {
		return nil, collateral.ErrInsufficientCollateral
	}
	if err != nil {
		return nil, err
	}
	if amount > pos.Amount {
		return nil, collateral.ErrInsufficientCollateral
	}

	secured, err := r.Loans.ListActiveByBorrowerAsset(ctx, borrowerID, asset)
	if err != nil {
		return nil, err
	}
	if len(secured) > 0 {
		q, err := s.FreshQuote(ctx, asset)
		if err != nil {
			return nil, err
		}
		remaining := pos.Amount - amount
		for i := range secured {
			if RatioBps(remaining, q.Price, secured[i].Outstanding) < minRatioBps {
				return nil, collateral.ErrBelowMinimumRatio
			}
		}
	}

	pos.Amount -= amount
	if err := r.Positions.Save(ctx, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// Seize transfers collateral out of a position unconditionally. Only the
// liquidation and default paths reach this, inside the loan manager's
// transaction; the minimum-ratio guard deliberately does not apply.
func (s *Service) Seize(ctx context.Context, positions collateral.Repository, borrowerID, asset string, amount uint64) error {
	pos, err := positions.GetForUpdate(ctx, borrowerID, asset)
	if err != nil {
		return err
	}
	if amount > pos.Amount {
		return fmt.Errorf("seize %d exceeds position %d for %s/%s", amount, pos.Amount, borrowerID, asset)
	}
	pos.Amount -= amount
	return positions.Save(ctx, pos)
}

// Release returns the full position to the borrower, used when the last
// active loan secured by the asset is repaid. Returns the released amount.
func (s *Service) Release(ctx context.Context, positions collateral.Repository, borrowerID, asset string) (uint64, error) {
	pos, err := positions.GetForUpdate(ctx, borrowerID, asset)
	if errors.Is(err, collateral.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	released := pos.Amount
	pos.Amount = 0
	if err := positions.Save(ctx, pos); err != nil {
		return 0, err
	}
	return released, nil
}
