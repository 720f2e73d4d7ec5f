package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TableSpec describes one pair table: its name, its two value columns, the
// per-column length bounds, and which columns carry a unique index. Specs are
// code-owned constants; the generated SQL never interpolates caller input.
type TableSpec struct {
	Name        string
	LeftColumn  string
	RightColumn string
	LeftMax     int
	RightMax    int
	UniqueLeft  bool
	UniqueRight bool
}

// Row is one entry in a pair table. Left and Right are nullable; a NULL is
// distinct from the empty string and never collides under a unique index.
type Row struct {
	ID    int64
	Left  sql.NullString
	Right sql.NullString
}

// PairTable is a generic two-column association with surrogate identity.
// The surrogate id is assigned by the store at insert, is strictly
// increasing, and is never reused even after deletion.
//
// One PairTable instance per schema table; see NewHostKeyStore and
// NewSecretStore for the two instantiations.
type PairTable struct {
	db   *sql.DB
	spec TableSpec
}

// NewPairTable binds a table spec to a store handle.
func NewPairTable(s *Store, spec TableSpec) *PairTable {
	return &PairTable{db: s.db, spec: spec}
}

// Spec returns the table's descriptor.
func (t *PairTable) Spec() TableSpec {
	return t.spec
}

// Insert appends a row with the next surrogate id. The row and its index
// entries commit atomically; on a duplicate in a unique column no row is
// created and a *UniqueViolationError is returned.
func (t *PairTable) Insert(ctx context.Context, left, right sql.NullString) (Row, error) {
	if err := t.checkBounds(left, right); err != nil {
		return Row{}, err
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (%s, %s) VALUES (?, ?)",
		t.spec.Name, t.spec.LeftColumn, t.spec.RightColumn,
	)
	res, err := t.db.ExecContext(ctx, q, left, right)
	if err != nil {
		return Row{}, mapConstraintError(err, t.spec, left, right)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Row{}, fmt.Errorf("%s: last insert id: %w", t.spec.Name, err)
	}

	return Row{ID: id, Left: left, Right: right}, nil
}

// LookupByLeft returns all rows whose left column equals value, in insertion
// order. Returns an empty slice (not nil) when nothing matches.
func (t *PairTable) LookupByLeft(ctx context.Context, value string) ([]Row, error) {
	q := fmt.Sprintf(
		"SELECT id, %s, %s FROM %s WHERE %s = ? ORDER BY id ASC",
		t.spec.LeftColumn, t.spec.RightColumn, t.spec.Name, t.spec.LeftColumn,
	)
	rows, err := t.db.QueryContext(ctx, q, value)
	if err != nil {
		return nil, fmt.Errorf("%s: lookup by %s: %w", t.spec.Name, t.spec.LeftColumn, err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Left, &r.Right); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", t.spec.Name, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", t.spec.Name, err)
	}

	return out, nil
}

// LookupOneByLeft returns the single row whose left column equals value.
// Intended for tables where left is unique; returns *NotFoundError when no
// row matches.
func (t *PairTable) LookupOneByLeft(ctx context.Context, value string) (Row, error) {
	q := fmt.Sprintf(
		"SELECT id, %s, %s FROM %s WHERE %s = ?",
		t.spec.LeftColumn, t.spec.RightColumn, t.spec.Name, t.spec.LeftColumn,
	)
	return t.lookupOne(ctx, q, value)
}

// LookupOneByRight returns the single row whose right column equals value.
// Returns *NotFoundError when no row matches.
func (t *PairTable) LookupOneByRight(ctx context.Context, value string) (Row, error) {
	q := fmt.Sprintf(
		"SELECT id, %s, %s FROM %s WHERE %s = ?",
		t.spec.LeftColumn, t.spec.RightColumn, t.spec.Name, t.spec.RightColumn,
	)
	return t.lookupOne(ctx, q, value)
}

func (t *PairTable) lookupOne(ctx context.Context, query, value string) (Row, error) {
	var r Row
	err := t.db.QueryRowContext(ctx, query, value).Scan(&r.ID, &r.Left, &r.Right)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, &NotFoundError{Table: t.spec.Name, Key: value}
	}
	if err != nil {
		return Row{}, fmt.Errorf("%s: lookup: %w", t.spec.Name, err)
	}
	return r, nil
}

// Delete removes the row with the given surrogate id along with its index
// entries. Reports whether a row existed.
func (t *PairTable) Delete(ctx context.Context, id int64) (bool, error) {
	q := fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.spec.Name)
	return t.deleteWhere(ctx, q, id)
}

// DeleteByLeft removes all rows whose left column equals value.
// Reports whether any row existed.
func (t *PairTable) DeleteByLeft(ctx context.Context, value string) (bool, error) {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.spec.Name, t.spec.LeftColumn)
	return t.deleteWhere(ctx, q, value)
}

// DeleteByRight removes all rows whose right column equals value.
// Reports whether any row existed.
func (t *PairTable) DeleteByRight(ctx context.Context, value string) (bool, error) {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.spec.Name, t.spec.RightColumn)
	return t.deleteWhere(ctx, q, value)
}

func (t *PairTable) deleteWhere(ctx context.Context, query string, arg any) (bool, error) {
	res, err := t.db.ExecContext(ctx, query, arg)
	if err != nil {
		return false, fmt.Errorf("%s: delete: %w", t.spec.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", t.spec.Name, err)
	}
	return n > 0, nil
}

// Count returns the number of rows in the table.
func (t *PairTable) Count(ctx context.Context) (int64, error) {
	var n int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", t.spec.Name)
	if err := t.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count: %w", t.spec.Name, err)
	}
	return n, nil
}

// checkBounds enforces the per-column length limits the original VARCHAR
// declarations carried. SQLite stores TEXT without length enforcement, so the
// check happens here, before the statement runs.
func (t *PairTable) checkBounds(left, right sql.NullString) error {
	if t.spec.LeftMax > 0 && left.Valid && len(left.String) > t.spec.LeftMax {
		return &TooLongError{
			Table:  t.spec.Name,
			Column: t.spec.LeftColumn,
			Length: len(left.String),
			Max:    t.spec.LeftMax,
		}
	}
	if t.spec.RightMax > 0 && right.Valid && len(right.String) > t.spec.RightMax {
		return &TooLongError{
			Table:  t.spec.Name,
			Column: t.spec.RightColumn,
			Length: len(right.String),
			Max:    t.spec.RightMax,
		}
	}
	return nil
}
