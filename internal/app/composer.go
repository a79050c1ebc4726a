package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"hoteldesk/internal/domain"
)

// Composer fans one wizard payload out into a parent row plus its
// sub-resource rows, all inside a single storage transaction.
type Composer struct {
	store domain.Store
	cache domain.Cache
}

func NewComposer(store domain.Store, cache domain.Cache) *Composer {
	return &Composer{store: store, cache: cache}
}

// EnsureExists confirms the referenced parent row exists. Every
// update-by-id or append-children flow calls this before any write.
func (c *Composer) EnsureExists(ctx context.Context, t domain.Table, id int64) error {
	ok, err := c.store.Exists(ctx, t, id)
	if err != nil {
		return domain.StorageFailed(err)
	}
	if !ok {
		return domain.ParentMissing(t.Kind, id)
	}
	return nil
}

type subWrite struct {
	sub    Singleton
	fields domain.Row
}

type colWrite struct {
	col  Collection
	rows []domain.Row
}

// Create inserts the parent entity and every sub-resource the payload
// carries fields for, returning the composed result. The response holds a
// key per sub-resource only when that sub-resource was actually written.
func (c *Composer) Create(ctx context.Context, agg Aggregate, payload map[string]any) (domain.Row, error) {
	parentFields, err := Project(payload, agg.Fields)
	if err != nil {
		return nil, err
	}
	if len(parentFields) == 0 {
		return nil, domain.Errorf(domain.KindNoValidFields, "no valid %s fields provided", strings.ToLower(agg.Table.Kind))
	}

	// All payload validation happens before the transaction opens.
	subs, err := projectSingletons(payload, agg.Singletons)
	if err != nil {
		return nil, err
	}
	cols, err := projectFlatCollections(payload, agg.Collections)
	if err != nil {
		return nil, err
	}

	composed := domain.Row{}
	err = c.store.WithinTx(ctx, func(tx domain.Tx) error {
		id, ierr := tx.Insert(ctx, agg.Table, parentFields)
		if ierr != nil {
			return c.translateParentInsert(agg, parentFields, ierr)
		}
		parent, gerr := tx.GetByID(ctx, agg.Table, id)
		if gerr != nil {
			return domain.StorageFailed(gerr)
		}
		composed[agg.Key] = Normalize(parent, agg.Fields)

		for _, w := range subs {
			row, uerr := upsertOne(ctx, tx, w.sub, agg.Table.Kind, id, w.fields)
			if uerr != nil {
				return uerr
			}
			if row != nil {
				composed[w.sub.Key] = row
			}
		}
		for _, w := range cols {
			rows, aerr := insertBatch(ctx, tx, agg, w.col, id, w.rows)
			if aerr != nil {
				return aerr
			}
			composed[w.col.Key] = rows
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, agg, rowID(composed[agg.Key], agg.Table.IDCol))
	log.Debug().Str("aggregate", agg.Key).Msg("composition created")
	return composed, nil
}

// Update applies a partial payload to an existing parent and repeats the
// per-sub-resource upsert sequence against it. Fields the payload omits
// keep their stored values.
func (c *Composer) Update(ctx context.Context, agg Aggregate, id int64, payload map[string]any) (domain.Row, error) {
	if err := c.EnsureExists(ctx, agg.Table, id); err != nil {
		return nil, err
	}

	parentFields, err := Project(payload, agg.Fields)
	if err != nil {
		return nil, err
	}
	subs, err := projectSingletons(payload, agg.Singletons)
	if err != nil {
		return nil, err
	}

	composed := domain.Row{}
	err = c.store.WithinTx(ctx, func(tx domain.Tx) error {
		if len(parentFields) > 0 {
			if uerr := tx.Update(ctx, agg.Table, id, parentFields); uerr != nil {
				return c.translateParentInsert(agg, parentFields, uerr)
			}
		}
		parent, gerr := tx.GetByID(ctx, agg.Table, id)
		if gerr != nil {
			return domain.StorageFailed(gerr)
		}
		composed[agg.Key] = Normalize(parent, agg.Fields)

		for _, w := range subs {
			row, uerr := upsertOne(ctx, tx, w.sub, agg.Table.Kind, id, w.fields)
			if uerr != nil {
				return uerr
			}
			if row != nil {
				composed[w.sub.Key] = row
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, agg, id)
	return composed, nil
}

// UpsertSingleton serves dedicated sub-resource endpoints such as the F&B
// contact upsert. A payload that projects to nothing is rejected rather
// than writing an empty row.
func (c *Composer) UpsertSingleton(ctx context.Context, agg Aggregate, sub Singleton, parentID int64, payload map[string]any) (domain.Row, error) {
	if err := c.EnsureExists(ctx, agg.Table, parentID); err != nil {
		return nil, err
	}
	fields, err := Project(payload, sub.Fields)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.Errorf(domain.KindNoValidFields, "no valid %s fields provided", sub.Key)
	}

	var row domain.Row
	err = c.store.WithinTx(ctx, func(tx domain.Tx) error {
		var uerr error
		row, uerr = upsertOne(ctx, tx, sub, agg.Table.Kind, parentID, fields)
		return uerr
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, agg, parentID)
	return row, nil
}

func projectSingletons(payload map[string]any, subs []Singleton) ([]subWrite, error) {
	var out []subWrite
	for _, sub := range subs {
		fields, err := Project(payload, sub.Fields)
		if err != nil {
			return nil, err
		}
		if len(fields) > 0 {
			out = append(out, subWrite{sub: sub, fields: fields})
		}
	}
	return out, nil
}

// projectFlatCollections handles the create-payload special case where one
// collection item's fields arrive inline (a room created with its first
// category). The synthesized one-element batch goes through the same
// validation as the bulk append endpoint.
func projectFlatCollections(payload map[string]any, cols []Collection) ([]colWrite, error) {
	var out []colWrite
	for _, col := range cols {
		if !col.FlatCreate {
			continue
		}
		item := map[string]any{}
		for _, f := range col.Fields {
			if v, ok := payload[f.Name]; ok && v != nil {
				item[f.Name] = v
			}
		}
		if len(item) == 0 {
			continue
		}
		rows, err := validateBatch(col, []map[string]any{item})
		if err != nil {
			return nil, err
		}
		out = append(out, colWrite{col: col, rows: rows})
	}
	return out, nil
}

// translateParentInsert maps a foreign-key failure on the parent row itself
// (a room or event naming a hotel that does not exist) onto the owning
// entity, so the caller sees "Hotel with ID n not found".
func (c *Composer) translateParentInsert(agg Aggregate, fields domain.Row, err error) error {
	if errors.Is(err, domain.ErrForeignKey) && agg.Owner != nil {
		return domain.ParentMissing(agg.Owner.Kind, rowID(fields, agg.Owner.Field))
	}
	if errors.Is(err, domain.ErrDuplicate) {
		return &domain.Error{Kind: domain.KindConflict, Detail: fmt.Sprintf("%s already exists", agg.Table.Kind)}
	}
	return domain.StorageFailed(err)
}

func (c *Composer) invalidate(ctx context.Context, agg Aggregate, id int64) {
	if c.cache == nil || id == 0 {
		return
	}
	_ = c.cache.Del(ctx, fmt.Sprintf("%s:%d", agg.Key, id))
}

func rowID(v any, col string) int64 {
	row, ok := v.(domain.Row)
	if !ok {
		return 0
	}
	switch id := row[col].(type) {
	case int64:
		return id
	case float64:
		return int64(id)
	}
	return 0
}
