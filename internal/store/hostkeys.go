package store

import (
	"context"
	"database/sql"
)

// Column bounds carried over from the original VARCHAR declarations.
const (
	maxHostLen   = 1024
	maxAPIKeyLen = 256
)

// HostKeyStore answers which api keys are valid for a calling host, backed by
// the loc_auth table. A host may hold any number of keys; a key belongs to at
// most one host (api_key carries the unique index, host does not).
type HostKeyStore struct {
	table *PairTable
}

// NewHostKeyStore binds a HostKeyStore to an open store handle.
func NewHostKeyStore(s *Store) *HostKeyStore {
	return &HostKeyStore{
		table: NewPairTable(s, TableSpec{
			Name:        "loc_auth",
			LeftColumn:  "host",
			RightColumn: "api_key",
			LeftMax:     maxHostLen,
			RightMax:    maxAPIKeyLen,
			UniqueRight: true,
		}),
	}
}

// Register records apiKey as valid for host. Returns *UniqueViolationError if
// the key is already registered to any host, including this one: at most one
// live mapping exists per key.
func (h *HostKeyStore) Register(ctx context.Context, host, apiKey string) error {
	_, err := h.table.Insert(ctx,
		sql.NullString{String: host, Valid: true},
		sql.NullString{String: apiKey, Valid: true},
	)
	return err
}

// FindByHost returns every api key registered for host, oldest first.
// The caller applies its own disambiguation policy; gauth treats any match as
// authorizing.
func (h *HostKeyStore) FindByHost(ctx context.Context, host string) ([]string, error) {
	rows, err := h.table.LookupByLeft(ctx, host)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Right.Valid {
			keys = append(keys, r.Right.String)
		}
	}
	return keys, nil
}

// FindByKey validates a presented api key and recovers its owning host.
// Returns *NotFoundError for an unknown key.
func (h *HostKeyStore) FindByKey(ctx context.Context, apiKey string) (string, error) {
	row, err := h.table.LookupOneByRight(ctx, apiKey)
	if err != nil {
		return "", err
	}
	return row.Left.String, nil
}

// Revoke removes the mapping for apiKey. Reports whether the key existed.
func (h *HostKeyStore) Revoke(ctx context.Context, apiKey string) (bool, error) {
	return h.table.DeleteByRight(ctx, apiKey)
}

// Table exposes the underlying pair table, mainly for tests.
func (h *HostKeyStore) Table() *PairTable {
	return h.table
}
