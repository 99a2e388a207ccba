package mysql

import (
	"context"

	liqDomain "lendora-core/internal/domain/liquidation"

	"gorm.io/gorm"
)

type EventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *EventRepository { return &EventRepository{db: db} }

// Create appends; liquidation events are never updated or deleted.
func (r *EventRepository) Create(ctx context.Context, e *liqDomain.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) ListByLoanID(ctx context.Context, loanID string) ([]liqDomain.Event, error) {
	var out []liqDomain.Event
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id ASC").Find(&out)
	return out, res.Error
}
