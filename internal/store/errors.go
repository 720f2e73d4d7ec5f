package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// UniqueViolationError is returned when an insert or update would duplicate a
// value in a column carrying a unique index. It is never silently coerced
// into an update; the caller decides policy (treat as already-registered vs.
// hard error).
type UniqueViolationError struct {
	// Table is the table whose constraint was violated.
	Table string

	// Column is the unique column holding the duplicate, when it can be
	// recovered from the engine's error message.
	Column string

	// Value is the duplicate value, when known to the caller side.
	Value string
}

func (e *UniqueViolationError) Error() string {
	col := e.Column
	if col == "" {
		col = "?"
	}
	return fmt.Sprintf("unique violation on %s.%s", e.Table, col)
}

// NotFoundError is returned when an operation references a row by key and no
// matching row exists.
type NotFoundError struct {
	Table string
	Key   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no row for %q", e.Table, e.Key)
}

// TooLongError is returned when a value exceeds the column's declared bound.
// SQLite does not enforce VARCHAR(n) lengths, so the bound is checked before
// the statement runs.
type TooLongError struct {
	Table  string
	Column string
	Length int
	Max    int
}

func (e *TooLongError) Error() string {
	return fmt.Sprintf("%s.%s: value length %d exceeds limit %d",
		e.Table, e.Column, e.Length, e.Max)
}

// IsUniqueViolation reports whether err is (or wraps) a UniqueViolationError.
func IsUniqueViolation(err error) bool {
	var uv *UniqueViolationError
	return errors.As(err, &uv)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// mapConstraintError converts a driver error from an INSERT/UPDATE into the
// store's error taxonomy. left/right are the values the statement carried,
// used to attach the duplicate value to the violation when the engine names
// the column. Unrecognized errors pass through unchanged.
func mapConstraintError(err error, spec TableSpec, left, right sql.NullString) error {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return err
	}
	if serr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return err
	}

	_, column := parseUniqueConstraint(serr.Error())
	violation := &UniqueViolationError{Table: spec.Name, Column: column}
	switch column {
	case spec.LeftColumn:
		if left.Valid {
			violation.Value = left.String
		}
	case spec.RightColumn:
		if right.Valid {
			violation.Value = right.String
		}
	}
	return violation
}

// parseUniqueConstraint extracts "table.column" from a SQLite message of the
// form "UNIQUE constraint failed: secrets.token". Returns empty strings if
// the message has a different shape.
func parseUniqueConstraint(msg string) (table, column string) {
	const marker = "UNIQUE constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return "", ""
	}
	rest := msg[i+len(marker):]
	// Composite constraints list columns comma-separated; take the first.
	if j := strings.IndexByte(rest, ','); j >= 0 {
		rest = rest[:j]
	}
	if j := strings.IndexByte(rest, '.'); j >= 0 {
		return rest[:j], rest[j+1:]
	}
	return "", strings.TrimSpace(rest)
}
