package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	mysqldrv "github.com/go-sql-driver/mysql"

	"hoteldesk/internal/domain"
)

// Store is a descriptor-driven row store over database/sql. It knows
// nothing about aggregates; the app layer supplies table descriptors and
// field rows and owns the composition semantics.
type Store struct {
	db *sql.DB
	reader
}

func New(db *sql.DB) *Store { return &Store{db: db, reader: reader{q: db}} }

// WithinTx runs fn inside one transaction: commit only if fn succeeds,
// roll back everything otherwise. One aggregate composition = one call.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.Tx) error) error {
	t, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&tx{reader: reader{q: t}, t: t}); err != nil {
		_ = t.Rollback()
		return err
	}
	return t.Commit()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type reader struct{ q querier }

func (r reader) GetByID(ctx context.Context, t domain.Table, id int64) (domain.Row, error) {
	return r.getOne(ctx, buildSelect(t, t.IDCol, true, false), id)
}

func (r reader) GetByParent(ctx context.Context, t domain.Table, parentID int64) (domain.Row, error) {
	return r.getOne(ctx, buildSelect(t, t.ParentCol, true, false), parentID)
}

func (r reader) ListByParent(ctx context.Context, t domain.Table, parentID int64) ([]domain.Row, error) {
	rows, err := r.q.QueryContext(ctx, buildSelect(t, t.ParentCol, false, true), parentID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (r reader) Exists(ctx context.Context, t domain.Table, id int64) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx, buildExists(t), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, translateErr(err)
	}
	return true, nil
}

func (r reader) getOne(ctx context.Context, query string, arg any) (domain.Row, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	out, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out[0], nil
}

type tx struct {
	reader
	t *sql.Tx
}

func (x *tx) Insert(ctx context.Context, t domain.Table, fields domain.Row) (int64, error) {
	cols := orderedCols(fields)
	res, err := x.t.ExecContext(ctx, buildInsert(t, cols), bindArgs(fields, cols)...)
	if err != nil {
		return 0, translateErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (x *tx) Update(ctx context.Context, t domain.Table, id int64, fields domain.Row) error {
	return x.update(ctx, t, t.IDCol, id, fields)
}

func (x *tx) UpdateByParent(ctx context.Context, t domain.Table, parentID int64, fields domain.Row) error {
	return x.update(ctx, t, t.ParentCol, parentID, fields)
}

func (x *tx) update(ctx context.Context, t domain.Table, whereCol string, key int64, fields domain.Row) error {
	if len(fields) == 0 {
		return nil
	}
	cols := orderedCols(fields)
	args := append(bindArgs(fields, cols), key)
	if _, err := x.t.ExecContext(ctx, buildUpdate(t, cols, whereCol), args...); err != nil {
		return translateErr(err)
	}
	return nil
}

// bindArgs converts row values to driver-friendly bind parameters; decoded
// JSON arrays are re-encoded for their JSON columns.
func bindArgs(fields domain.Row, cols []string) []any {
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		switch v := fields[c].(type) {
		case []any, map[string]any:
			b, _ := json.Marshal(v)
			args = append(args, string(b))
		default:
			args = append(args, v)
		}
	}
	return args
}

// scanRows turns a generic result set into Rows. NULL columns are dropped
// so partially-filled sub-resources come back partial, not nil-padded.
func scanRows(rows *sql.Rows) ([]domain.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []domain.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		for i := range vals {
			vals[i] = new(any)
		}
		if err := rows.Scan(vals...); err != nil {
			return nil, err
		}
		row := make(domain.Row, len(cols))
		for i, c := range cols {
			switch v := (*(vals[i].(*any))).(type) {
			case nil:
				// drop NULLs
			case []byte:
				row[c] = string(v)
			default:
				row[c] = v
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// translateErr maps driver error codes onto the storage sentinels the
// composition core branches on.
func translateErr(err error) error {
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062: // ER_DUP_ENTRY
			return fmt.Errorf("%w: %v", domain.ErrDuplicate, err)
		case 1451, 1452: // ER_ROW_IS_REFERENCED_2, ER_NO_REFERENCED_ROW_2
			return fmt.Errorf("%w: %v", domain.ErrForeignKey, err)
		}
	}
	return err
}
