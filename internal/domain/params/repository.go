package params

import "context"

type Repository interface {
	Latest(ctx context.Context) (*Params, error)
	Create(ctx context.Context, p *Params) error
	RecordChange(ctx context.Context, c *Change) error
	ListChanges(ctx context.Context) ([]Change, error)
}
