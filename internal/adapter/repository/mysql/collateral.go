package mysql

import (
	"context"
	"errors"

	collateralDomain "lendora-core/internal/domain/collateral"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PositionRepository struct{ db *gorm.DB }

func NewPositionRepository(db *gorm.DB) *PositionRepository { return &PositionRepository{db: db} }

func (r *PositionRepository) Get(ctx context.Context, borrowerID, asset string) (*collateralDomain.Position, error) {
	var out collateralDomain.Position
	res := r.db.WithContext(ctx).Where("borrower_id = ? AND asset = ?", borrowerID, asset).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, collateralDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *PositionRepository) GetForUpdate(ctx context.Context, borrowerID, asset string) (*collateralDomain.Position, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out collateralDomain.Position
	res := q.Where("borrower_id = ? AND asset = ?", borrowerID, asset).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, collateralDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *PositionRepository) Create(ctx context.Context, p *collateralDomain.Position) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PositionRepository) Save(ctx context.Context, p *collateralDomain.Position) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PositionRepository) ListByBorrower(ctx context.Context, borrowerID string) ([]collateralDomain.Position, error) {
	var out []collateralDomain.Position
	res := r.db.WithContext(ctx).Where("borrower_id = ?", borrowerID).Order("asset ASC").Find(&out)
	return out, res.Error
}
