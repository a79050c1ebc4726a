package app

import (
	"context"
	"errors"
	"strings"

	"hoteldesk/internal/domain"
)

// AppendChildren validates and inserts a batch of collection items under
// an existing parent. Validation is all-or-nothing: a single bad item
// rejects the whole batch before anything is written.
func (c *Composer) AppendChildren(ctx context.Context, agg Aggregate, col Collection, parentID int64, items []map[string]any) ([]domain.Row, error) {
	if err := c.EnsureExists(ctx, agg.Table, parentID); err != nil {
		return nil, err
	}
	rows, err := validateBatch(col, items)
	if err != nil {
		return nil, err
	}

	var out []domain.Row
	err = c.store.WithinTx(ctx, func(tx domain.Tx) error {
		var aerr error
		out, aerr = insertBatch(ctx, tx, agg, col, parentID, rows)
		return aerr
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, agg, parentID)
	return out, nil
}

// validateBatch checks batch shape and the per-item discriminator, then
// projects every item. Nothing is written until all items pass.
func validateBatch(col Collection, items []map[string]any) ([]domain.Row, error) {
	if len(items) == 0 {
		return nil, domain.Errorf(domain.KindInvalidBatchShape, "Request body must be a non-empty array")
	}
	rows := make([]domain.Row, 0, len(items))
	for i, item := range items {
		if !hasDiscriminator(item, col.Discriminator) {
			return nil, domain.Errorf(domain.KindMissingDiscriminator,
				"Each %s must contain at least a %s (item %d)", col.ItemLabel, col.Discriminator, i)
		}
		row, err := Project(item, col.Fields)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func hasDiscriminator(item map[string]any, field string) bool {
	v, ok := item[field]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// insertBatch writes all items tagged with the parent id, preserving input
// order, and returns them with their generated ids attached.
func insertBatch(ctx context.Context, tx domain.Tx, agg Aggregate, col Collection, parentID int64, rows []domain.Row) ([]domain.Row, error) {
	out := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		r := row.Clone()
		r[col.Table.ParentCol] = parentID
		id, err := tx.Insert(ctx, col.Table, r)
		if err != nil {
			if errors.Is(err, domain.ErrForeignKey) {
				return nil, domain.ParentMissing(agg.Table.Kind, parentID)
			}
			return nil, domain.StorageFailed(err)
		}
		r[col.Table.IDCol] = id
		out = append(out, r)
	}
	return out, nil
}
