package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Column bounds carried over from the original VARCHAR declarations.
const (
	maxIdentLen = 4096
	maxTokenLen = 128
)

// SecretStore associates opaque caller-supplied idents with secret tokens,
// backed by the secrets table. The mapping is strictly 1:1 in both
// directions: an ident never holds two tokens, and a token is never shared
// by two idents (unique indexes on both columns).
type SecretStore struct {
	table *PairTable
	db    *sql.DB
}

// NewSecretStore binds a SecretStore to an open store handle.
func NewSecretStore(s *Store) *SecretStore {
	return &SecretStore{
		table: NewPairTable(s, TableSpec{
			Name:        "secrets",
			LeftColumn:  "ident",
			RightColumn: "token",
			LeftMax:     maxIdentLen,
			RightMax:    maxTokenLen,
			UniqueLeft:  true,
			UniqueRight: true,
		}),
		db: s.db,
	}
}

// Put stores token under ident. Returns *UniqueViolationError if either the
// ident or the token already exists on any row.
func (st *SecretStore) Put(ctx context.Context, ident, token string) error {
	_, err := st.table.Insert(ctx,
		sql.NullString{String: ident, Valid: true},
		sql.NullString{String: token, Valid: true},
	)
	return err
}

// GetByIdent returns the token stored under ident, or *NotFoundError.
func (st *SecretStore) GetByIdent(ctx context.Context, ident string) (string, error) {
	row, err := st.table.LookupOneByLeft(ctx, ident)
	if err != nil {
		return "", err
	}
	return row.Right.String, nil
}

// GetByToken answers which ident a bearer token belongs to, or
// *NotFoundError.
func (st *SecretStore) GetByToken(ctx context.Context, token string) (string, error) {
	row, err := st.table.LookupOneByRight(ctx, token)
	if err != nil {
		return "", err
	}
	return row.Left.String, nil
}

// GetByID retrieves a row by its surrogate id.
func (st *SecretStore) GetByID(ctx context.Context, id int64) (ident, token string, err error) {
	var left, right sql.NullString
	err = st.db.QueryRowContext(ctx,
		"SELECT ident, token FROM secrets WHERE id = ?", id,
	).Scan(&left, &right)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", &NotFoundError{Table: "secrets", Key: fmt.Sprintf("id=%d", id)}
	}
	if err != nil {
		return "", "", fmt.Errorf("secrets: get by id: %w", err)
	}
	return left.String, right.String, nil
}

// Rotate replaces the token stored under ident. The swap is a single UPDATE
// under the token's unique index, so it is all-or-nothing: if newToken is
// already owned by another ident the update fails with *UniqueViolationError
// and the existing mapping is untouched. Returns *NotFoundError when ident
// has no row.
func (st *SecretStore) Rotate(ctx context.Context, ident, newToken string) error {
	if len(newToken) > maxTokenLen {
		return &TooLongError{
			Table:  "secrets",
			Column: "token",
			Length: len(newToken),
			Max:    maxTokenLen,
		}
	}

	res, err := st.db.ExecContext(ctx,
		"UPDATE secrets SET token = ? WHERE ident = ?", newToken, ident)
	if err != nil {
		return mapConstraintError(err, st.table.Spec(),
			sql.NullString{String: ident, Valid: true},
			sql.NullString{String: newToken, Valid: true})
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("secrets: rotate: rows affected: %w", err)
	}
	if n == 0 {
		return &NotFoundError{Table: "secrets", Key: ident}
	}
	return nil
}

// Delete removes the row stored under ident. Reports whether it existed.
func (st *SecretStore) Delete(ctx context.Context, ident string) (bool, error) {
	return st.table.DeleteByLeft(ctx, ident)
}

// Table exposes the underlying pair table, mainly for tests.
func (st *SecretStore) Table() *PairTable {
	return st.table
}
