package app

import (
	"context"
	"errors"

	"hoteldesk/internal/domain"
)

// upsertOne writes one singleton sub-resource under parentID: update when a
// row already exists, insert otherwise. An empty field set performs no I/O
// and returns nil so callers skip the response key entirely.
//
// The exists-check and the insert are two statements, so a concurrent
// request may win the insert in between; the UNIQUE(parent_id) constraint
// turns the loser's insert into a duplicate-key failure, which we retry as
// an update instead of surfacing a conflict.
func upsertOne(ctx context.Context, tx domain.Tx, sub Singleton, parentKind string, parentID int64, fields domain.Row) (domain.Row, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	_, err := tx.GetByParent(ctx, sub.Table, parentID)
	switch {
	case err == nil:
		if uerr := tx.UpdateByParent(ctx, sub.Table, parentID, fields); uerr != nil {
			return nil, domain.StorageFailed(uerr)
		}
	case errors.Is(err, domain.ErrNotFound):
		row := fields.Clone()
		row[sub.Table.ParentCol] = parentID
		if _, ierr := tx.Insert(ctx, sub.Table, row); ierr != nil {
			switch {
			case errors.Is(ierr, domain.ErrDuplicate):
				// lost the create race; the row exists now
				if uerr := tx.UpdateByParent(ctx, sub.Table, parentID, fields); uerr != nil {
					return nil, domain.StorageFailed(uerr)
				}
			case errors.Is(ierr, domain.ErrForeignKey):
				return nil, domain.ParentMissing(parentKind, parentID)
			default:
				return nil, domain.StorageFailed(ierr)
			}
		}
	default:
		return nil, domain.StorageFailed(err)
	}

	out, err := tx.GetByParent(ctx, sub.Table, parentID)
	if err != nil {
		return nil, domain.StorageFailed(err)
	}
	return Normalize(out, sub.Fields), nil
}
