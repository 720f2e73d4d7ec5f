package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestPairTable_InsertAssignsIncreasingIDs(t *testing.T) {
	pt := testPairTable(t)

	r1 := mustInsert(t, pt, ns("a"), ns("1"))
	r2 := mustInsert(t, pt, ns("b"), ns("2"))
	r3 := mustInsert(t, pt, ns("c"), ns("3"))

	if !(r1.ID < r2.ID && r2.ID < r3.ID) {
		t.Errorf("ids not strictly increasing: %d, %d, %d", r1.ID, r2.ID, r3.ID)
	}
}

func TestPairTable_IDsNeverReused(t *testing.T) {
	pt := testPairTable(t)

	r1 := mustInsert(t, pt, ns("a"), ns("1"))

	ok, err := pt.Delete(context.Background(), r1.ID)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !ok {
		t.Fatal("Delete() reported no row")
	}

	// A fresh insert must not reclaim the deleted id
	r2 := mustInsert(t, pt, ns("b"), ns("2"))
	if r2.ID <= r1.ID {
		t.Errorf("id %d reused after deleting id %d", r2.ID, r1.ID)
	}
}

func TestPairTable_UniqueViolationOnLeft(t *testing.T) {
	pt := testPairTable(t)
	mustInsert(t, pt, ns("dup"), ns("t1"))

	_, err := pt.Insert(context.Background(), ns("dup"), ns("t2"))
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	var uv *UniqueViolationError
	if !errors.As(err, &uv) {
		t.Fatal("error does not unwrap to *UniqueViolationError")
	}
	if uv.Table != "secrets" || uv.Column != "ident" {
		t.Errorf("violation = %s.%s, expected secrets.ident", uv.Table, uv.Column)
	}
	if uv.Value != "dup" {
		t.Errorf("violation value = %q, expected %q", uv.Value, "dup")
	}

	// No row may have been created
	n, err := pt.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("row count = %d after failed insert, expected 1", n)
	}
}

func TestPairTable_UniqueViolationOnRight(t *testing.T) {
	pt := testPairTable(t)
	mustInsert(t, pt, ns("a"), ns("shared"))

	_, err := pt.Insert(context.Background(), ns("b"), ns("shared"))
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	var uv *UniqueViolationError
	if !errors.As(err, &uv) {
		t.Fatal("error does not unwrap to *UniqueViolationError")
	}
	if uv.Column != "token" {
		t.Errorf("violation column = %q, expected token", uv.Column)
	}
}

func TestPairTable_NullsNeverCollide(t *testing.T) {
	pt := testPairTable(t)

	// Multiple NULLs in a unique column are distinct per standard relational
	// semantics. Rights must still differ.
	mustInsert(t, pt, null, ns("t1"))
	mustInsert(t, pt, null, ns("t2"))

	n, err := pt.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("row count = %d, expected 2", n)
	}
}

func TestPairTable_NullDistinctFromEmptyString(t *testing.T) {
	pt := testPairTable(t)

	mustInsert(t, pt, ns(""), ns("t1"))
	mustInsert(t, pt, null, ns("t2"))

	// Empty string occupies the unique slot; NULL does not.
	_, err := pt.Insert(context.Background(), ns(""), ns("t3"))
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation for duplicate empty string, got %v", err)
	}
}

func TestPairTable_LookupByLeft_InsertionOrder(t *testing.T) {
	st := createTestStore(t)
	// loc_auth has a non-unique left, so several rows can share it
	pt := NewHostKeyStore(st).Table()

	mustInsert(t, pt, ns("h"), ns("k1"))
	mustInsert(t, pt, ns("other"), ns("kx"))
	mustInsert(t, pt, ns("h"), ns("k2"))
	mustInsert(t, pt, ns("h"), ns("k3"))

	rows, err := pt.LookupByLeft(context.Background(), "h")
	if err != nil {
		t.Fatalf("LookupByLeft() failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, expected 3", len(rows))
	}
	for i, want := range []string{"k1", "k2", "k3"} {
		if rows[i].Right.String != want {
			t.Errorf("rows[%d].Right = %q, expected %q", i, rows[i].Right.String, want)
		}
	}
}

func TestPairTable_LookupByLeft_NoMatch(t *testing.T) {
	pt := testPairTable(t)

	rows, err := pt.LookupByLeft(context.Background(), "missing")
	if err != nil {
		t.Fatalf("LookupByLeft() failed: %v", err)
	}
	if rows == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, expected 0", len(rows))
	}
}

func TestPairTable_LookupOne_NotFound(t *testing.T) {
	pt := testPairTable(t)

	_, err := pt.LookupOneByLeft(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Errorf("LookupOneByLeft: expected not-found, got %v", err)
	}

	_, err = pt.LookupOneByRight(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Errorf("LookupOneByRight: expected not-found, got %v", err)
	}
}

func TestPairTable_Delete_Nonexistent(t *testing.T) {
	pt := testPairTable(t)

	ok, err := pt.Delete(context.Background(), 9999)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if ok {
		t.Error("Delete() of nonexistent id reported a row")
	}
}

func TestPairTable_DeleteRemovesIndexEntries(t *testing.T) {
	pt := testPairTable(t)
	row := mustInsert(t, pt, ns("a"), ns("t"))

	if _, err := pt.Delete(context.Background(), row.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	// Value is free for reuse once the row is gone
	mustInsert(t, pt, ns("a"), ns("t"))
}

func TestPairTable_BoundsEnforced(t *testing.T) {
	pt := testPairTable(t)

	longIdent := strings.Repeat("x", maxIdentLen+1)
	_, err := pt.Insert(context.Background(), ns(longIdent), ns("t"))
	var tl *TooLongError
	if !errors.As(err, &tl) {
		t.Fatalf("expected too-long error for oversized ident, got %v", err)
	}
	if tl.Column != "ident" || tl.Max != maxIdentLen {
		t.Errorf("too-long = %s (max %d), expected ident (max %d)", tl.Column, tl.Max, maxIdentLen)
	}

	longToken := strings.Repeat("x", maxTokenLen+1)
	_, err = pt.Insert(context.Background(), ns("i"), ns(longToken))
	if !errors.As(err, &tl) {
		t.Fatalf("expected too-long error for oversized token, got %v", err)
	}

	// Values at the bound are accepted
	mustInsert(t, pt, ns(strings.Repeat("a", maxIdentLen)), ns(strings.Repeat("b", maxTokenLen)))
}

func TestPairTable_ConcurrentInserts_OneWinner(t *testing.T) {
	pt := testPairTable(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := pt.Insert(context.Background(),
				ns("racer-"+string(rune('a'+i))), ns("contested-token"))
			errs[i] = err
		}(i)
	}
	wg.Wait()

	var wins, violations int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case IsUniqueViolation(err):
			violations++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("%d inserts succeeded, expected exactly 1", wins)
	}
	if violations != attempts-1 {
		t.Errorf("%d unique violations, expected %d", violations, attempts-1)
	}
}
