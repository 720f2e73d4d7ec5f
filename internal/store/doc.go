// Package store provides SQLite-backed storage for gauth's two lookup tables.
//
// The schema consists of:
//   - loc_auth: host -> api_key authorization mapping (api_key unique,
//     host indexed but not unique)
//   - secrets: ident -> token association with bidirectional uniqueness
//
// Both tables are instances of one shared abstraction, PairTable: a
// two-column association with a surrogate id and configurable uniqueness on
// either column. HostKeyStore and SecretStore are thin views over it.
//
// # Uniqueness and atomicity
//
// Uniqueness is enforced by the engine's UNIQUE indexes, not by
// check-then-insert in application code. An insert and its index entries
// commit together, so a reader never observes a row without its index entry
// or vice versa. Violations surface synchronously as *UniqueViolationError.
//
// NULL values are permitted in either column and never collide under a
// unique index (standard relational semantics).
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - single-writer connection pool: racing inserts on the same unique value
//     serialize, so exactly one succeeds and the rest fail cleanly
//
// The store performs no logging and no internal retries; errors propagate to
// the caller, who owns the policy.
package store
