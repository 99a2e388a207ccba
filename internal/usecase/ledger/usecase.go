package ledger

import (
	"context"

	"lendora-core/internal/domain/collateral"
	"lendora-core/internal/domain/uow"
)

// Usecase exposes the ledger operations borrowers reach directly (posting
// and withdrawing collateral outside a loan's own transaction).
type Usecase struct {
	uow uow.UnitOfWork
	svc *Service
}

func NewUsecase(u uow.UnitOfWork, svc *Service) *Usecase {
	return &Usecase{uow: u, svc: svc}
}

func (u *Usecase) Post(ctx context.Context, borrowerID, asset string, amount uint64) (*collateral.Position, error) {
	var out *collateral.Position
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		pos, err := u.svc.Post(ctx, r.Positions, borrowerID, asset, amount)
		if err != nil {
			return err
		}
		out = pos
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Withdraw(ctx context.Context, borrowerID, asset string, amount uint64) (*collateral.Position, error) {
	var out *collateral.Position
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Params.Latest(ctx)
		if err != nil {
			return err
		}
		pos, err := u.svc.Withdraw(ctx, r, p.MinOriginationRatioBps, borrowerID, asset, amount)
		if err != nil {
			return err
		}
		out = pos
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Positions(ctx context.Context, borrowerID string) ([]collateral.Position, error) {
	var out []collateral.Position
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		list, err := r.Positions.ListByBorrower(ctx, borrowerID)
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
