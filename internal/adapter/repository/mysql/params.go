package mysql

import (
	"context"
	"errors"

	paramsDomain "lendora-core/internal/domain/params"

	"gorm.io/gorm"
)

type ParamsRepository struct{ db *gorm.DB }

func NewParamsRepository(db *gorm.DB) *ParamsRepository { return &ParamsRepository{db: db} }

func (r *ParamsRepository) Latest(ctx context.Context) (*paramsDomain.Params, error) {
	var out paramsDomain.Params
	res := r.db.WithContext(ctx).Order("version DESC").First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, paramsDomain.ErrNotFound
	}
	return &out, res.Error
}

func (r *ParamsRepository) Create(ctx context.Context, p *paramsDomain.Params) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ParamsRepository) RecordChange(ctx context.Context, c *paramsDomain.Change) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ParamsRepository) ListChanges(ctx context.Context) ([]paramsDomain.Change, error) {
	var out []paramsDomain.Change
	res := r.db.WithContext(ctx).Order("id ASC").Find(&out)
	return out, res.Error
}
