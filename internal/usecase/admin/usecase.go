// Package admin owns the audited protocol configuration path. Every change
// appends a new params version plus one audit row per changed field, in a
// single transaction, so the configuration history is fully reconstructable.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainParams "lendora-core/internal/domain/params"
	"lendora-core/internal/domain/uow"
	"lendora-core/internal/ratemodel"
)

const maxLiquidationBonusBps = 2000

type Usecase struct {
	uow uow.UnitOfWork
	now func() time.Time
}

func NewUsecase(u uow.UnitOfWork) *Usecase {
	return &Usecase{uow: u, now: time.Now}
}

// EnsureDefaults seeds the genesis params version when the table is empty.
func (u *Usecase) EnsureDefaults(ctx context.Context) error {
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		_, err := r.Params.Latest(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domainParams.ErrNotFound) {
			return err
		}
		p := domainParams.Defaults()
		return r.Params.Create(ctx, &p)
	})
}

func (u *Usecase) Current(ctx context.Context) (*domainParams.Params, error) {
	var out *domainParams.Params
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Params.Latest(ctx)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Changes(ctx context.Context) ([]domainParams.Change, error) {
	var out []domainParams.Change
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		list, err := r.Params.ListChanges(ctx)
		if err != nil {
			return err
		}
		out = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetBaseRate publishes a new params version with the given base rate,
// bounded by the rate model's clamps.
func (u *Usecase) SetBaseRate(ctx context.Context, actor string, newBps uint64) (*domainParams.Params, error) {
	if newBps < ratemodel.MinBaseRateBps || newBps > ratemodel.MaxBaseRateBps {
		return nil, fmt.Errorf("%w: base rate %d outside [%d, %d]",
			domainParams.ErrOutOfBounds, newBps, ratemodel.MinBaseRateBps, ratemodel.MaxBaseRateBps)
	}
	return u.publish(ctx, actor, func(next *domainParams.Params) []fieldChange {
		old := next.BaseRateBps
		next.BaseRateBps = newBps
		return []fieldChange{{"base_rate_bps", old, newBps}}
	})
}

// SetLiquidationParams publishes a new version with the given liquidation
// threshold and bonus. The threshold must stay below the origination
// minimum: a loan healthy enough to originate must not be instantly
// liquidatable.
func (u *Usecase) SetLiquidationParams(ctx context.Context, actor string, thresholdBps, bonusBps uint64) (*domainParams.Params, error) {
	if bonusBps > maxLiquidationBonusBps {
		return nil, fmt.Errorf("%w: liquidation bonus %d above %d",
			domainParams.ErrOutOfBounds, bonusBps, maxLiquidationBonusBps)
	}
	return u.publish(ctx, actor, func(next *domainParams.Params) []fieldChange {
		changes := []fieldChange{
			{"liquidation_threshold_bps", next.LiquidationThresholdBps, thresholdBps},
			{"liquidation_bonus_bps", next.LiquidationBonusBps, bonusBps},
		}
		next.LiquidationThresholdBps = thresholdBps
		next.LiquidationBonusBps = bonusBps
		return changes
	})
}

type fieldChange struct {
	field    string
	old, new uint64
}

func (u *Usecase) publish(ctx context.Context, actor string, mutate func(next *domainParams.Params) []fieldChange) (*domainParams.Params, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: actor is required", domainParams.ErrOutOfBounds)
	}
	var out *domainParams.Params
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		cur, err := r.Params.Latest(ctx)
		if err != nil {
			return err
		}
		next := *cur
		next.ID = 0
		next.Version = cur.Version + 1
		next.UpdatedBy = actor
		next.CreatedAt = time.Time{}
		changes := mutate(&next)

		if next.LiquidationThresholdBps == 0 || next.LiquidationThresholdBps > next.MinOriginationRatioBps {
			return fmt.Errorf("%w: liquidation threshold %d must be in (0, %d]",
				domainParams.ErrOutOfBounds, next.LiquidationThresholdBps, next.MinOriginationRatioBps)
		}

		if err := r.Params.Create(ctx, &next); err != nil {
			return err
		}
		at := u.now().UTC()
		for _, c := range changes {
			if c.old == c.new {
				continue
			}
			rec := &domainParams.Change{
				Version:   next.Version,
				Field:     c.field,
				OldValue:  c.old,
				NewValue:  c.new,
				Actor:     actor,
				CreatedAt: at,
			}
			if err := r.Params.RecordChange(ctx, rec); err != nil {
				return err
			}
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
