package domain

import "context"

// Reader is the read surface shared by the store and its transactions.
// GetByParent serves singleton sub-resources (at most one row per parent),
// ListByParent serves collection sub-resources.
type Reader interface {
	GetByID(ctx context.Context, t Table, id int64) (Row, error)
	GetByParent(ctx context.Context, t Table, parentID int64) (Row, error)
	ListByParent(ctx context.Context, t Table, parentID int64) ([]Row, error)
	Exists(ctx context.Context, t Table, id int64) (bool, error)
}

// Tx adds the write surface. Every write of one aggregate composition
// happens inside a single Tx; either all of them commit or none do.
type Tx interface {
	Reader
	Insert(ctx context.Context, t Table, fields Row) (int64, error)
	Update(ctx context.Context, t Table, id int64, fields Row) error
	UpdateByParent(ctx context.Context, t Table, parentID int64, fields Row) error
}

type Store interface {
	Reader
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
