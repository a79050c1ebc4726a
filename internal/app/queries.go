package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hoteldesk/internal/domain"
)

type QueryService struct {
	store    domain.Store
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(store domain.Store, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: store, cache: cache, cacheTTL: ttl}
}

// GetComposed assembles the full read model for one parent: the parent row
// plus every singleton sub-resource that exists and every non-empty child
// collection. Results are cached per aggregate id and invalidated by writes.
func (s *QueryService) GetComposed(ctx context.Context, agg Aggregate, id int64) (domain.Row, error) {
	key := fmt.Sprintf("%s:%d", agg.Key, id)
	var cached domain.Row
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	parent, err := s.store.GetByID(ctx, agg.Table, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ParentMissing(agg.Table.Kind, id)
	}
	if err != nil {
		return nil, domain.StorageFailed(err)
	}

	out := domain.Row{agg.Key: Normalize(parent, agg.Fields)}
	for _, sub := range agg.Singletons {
		row, gerr := s.store.GetByParent(ctx, sub.Table, id)
		if errors.Is(gerr, domain.ErrNotFound) {
			continue
		}
		if gerr != nil {
			return nil, domain.StorageFailed(gerr)
		}
		out[sub.Key] = Normalize(row, sub.Fields)
	}
	for _, col := range agg.Collections {
		rows, lerr := s.store.ListByParent(ctx, col.Table, id)
		if lerr != nil {
			return nil, domain.StorageFailed(lerr)
		}
		if len(rows) == 0 {
			continue
		}
		normalized := make([]domain.Row, len(rows))
		for i, r := range rows {
			normalized[i] = Normalize(r, col.Fields)
		}
		out[col.Key] = normalized
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// GetSingleton reads one sub-resource row; domain.ErrNotFound when the
// parent exists but the sub-resource was never written.
func (s *QueryService) GetSingleton(ctx context.Context, agg Aggregate, sub Singleton, parentID int64) (domain.Row, error) {
	if err := s.ensureExists(ctx, agg.Table, parentID); err != nil {
		return nil, err
	}
	row, err := s.store.GetByParent(ctx, sub.Table, parentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, domain.StorageFailed(err)
	}
	return Normalize(row, sub.Fields), nil
}

// ListChildren returns a collection in insertion order.
func (s *QueryService) ListChildren(ctx context.Context, agg Aggregate, col Collection, parentID int64) ([]domain.Row, error) {
	if err := s.ensureExists(ctx, agg.Table, parentID); err != nil {
		return nil, err
	}
	rows, err := s.store.ListByParent(ctx, col.Table, parentID)
	if err != nil {
		return nil, domain.StorageFailed(err)
	}
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = Normalize(r, col.Fields)
	}
	return out, nil
}

func (s *QueryService) ensureExists(ctx context.Context, t domain.Table, id int64) error {
	ok, err := s.store.Exists(ctx, t, id)
	if err != nil {
		return domain.StorageFailed(err)
	}
	if !ok {
		return domain.ParentMissing(t.Kind, id)
	}
	return nil
}
