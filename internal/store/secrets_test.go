package store

import (
	"context"
	"testing"
)

func TestSecretStore_RoundTrip(t *testing.T) {
	st := NewSecretStore(createTestStore(t))
	ctx := context.Background()

	if err := st.Put(ctx, "svc-a", "tok-123"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	token, err := st.GetByIdent(ctx, "svc-a")
	if err != nil {
		t.Fatalf("GetByIdent() failed: %v", err)
	}
	if token != "tok-123" {
		t.Errorf("GetByIdent() = %q, expected %q", token, "tok-123")
	}

	ident, err := st.GetByToken(ctx, "tok-123")
	if err != nil {
		t.Fatalf("GetByToken() failed: %v", err)
	}
	if ident != "svc-a" {
		t.Errorf("GetByToken() = %q, expected %q", ident, "svc-a")
	}
}

func TestSecretStore_GetByID(t *testing.T) {
	st := NewSecretStore(createTestStore(t))
	ctx := context.Background()

	if err := st.Put(ctx, "svc-a", "tok-123"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	row, err := st.Table().LookupOneByLeft(ctx, "svc-a")
	if err != nil {
		t.Fatalf("LookupOneByLeft() failed: %v", err)
	}

	ident, token, err := st.GetByID(ctx, row.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if ident != "svc-a" || token != "tok-123" {
		t.Errorf("GetByID() = (%q, %q), expected (svc-a, tok-123)", ident, token)
	}

	if _, _, err := st.GetByID(ctx, row.ID+100); !IsNotFound(err) {
		t.Errorf("expected not-found for unknown id, got %v", err)
	}
}

func TestSecretStore_DuplicateIdentRejected(t *testing.T) {
	st := NewSecretStore(createTestStore(t))
	ctx := context.Background()

	if err := st.Put(ctx, "svc-a", "tok-1"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	err := st.Put(ctx, "svc-a", "tok-2")
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation for duplicate ident, got %v", err)
	}
}

func TestSecretStore_DuplicateTokenRejected(t *testing.T) {
	st := NewSecretStore(createTestStore(t))
	ctx := context.Background()

	if err := st.Put(ctx, "svc-a", "tok-1"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	err := st.Put(ctx, "svc-b", "tok-1")
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation for shared token, got %v", err)
	}
}

func TestSecretStore_Rotate(t *testing.T) {
	st := NewSecretStore(createTestStore(t))
	ctx := context.Background()

	if err := st.Put(ctx, "svc-a", "tok-123"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	if err := st.Rotate(ctx, "svc-a", "tok-456"); err != nil {
		t.Fatalf("Rotate() failed: %v", err)
	}

	// Old token is gone, new one resolves
	if _, err := st.GetByToken(ctx, "tok-123"); !IsNotFound(err) {
		t.Errorf("old token still resolves: %v", err)
	}
	ident, err := st.GetByToken(ctx, "tok-456")
	if err != nil {
		t.Fatalf("GetByToken() after rotate failed: %v", err)
	}
	if ident != "svc-a" {
		t.Errorf("GetByToken() = %q, expected svc-a", ident)
	}
}

func TestSecretStore_Rotate_UnknownIdent(t *testing.T) {
	st := NewSecretStore(createTestStore(t))

	err := st.Rotate(context.Background(), "missing", "tok-1")
	if !IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestSecretStore_Rotate_TokenOwnedElsewhere(t *testing.T) {
	st := NewSecretStore(createTestStore(t))
	ctx := context.Background()

	if err := st.Put(ctx, "svc-a", "tok-a"); err != nil {
		t.Fatalf("Put(svc-a) failed: %v", err)
	}
	if err := st.Put(ctx, "svc-b", "tok-b"); err != nil {
		t.Fatalf("Put(svc-b) failed: %v", err)
	}

	err := st.Rotate(ctx, "svc-a", "tok-b")
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	// Original mapping untouched: all-or-nothing
	token, err := st.GetByIdent(ctx, "svc-a")
	if err != nil {
		t.Fatalf("GetByIdent() failed: %v", err)
	}
	if token != "tok-a" {
		t.Errorf("svc-a token = %q after failed rotate, expected tok-a", token)
	}
	if ident, _ := st.GetByToken(ctx, "tok-a"); ident != "svc-a" {
		t.Errorf("tok-a owner = %q after failed rotate, expected svc-a", ident)
	}
}

func TestSecretStore_Delete(t *testing.T) {
	st := NewSecretStore(createTestStore(t))
	ctx := context.Background()

	if err := st.Put(ctx, "svc-a", "tok-1"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	ok, err := st.Delete(ctx, "svc-a")
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !ok {
		t.Error("Delete() reported no row for existing ident")
	}

	if _, err := st.GetByIdent(ctx, "svc-a"); !IsNotFound(err) {
		t.Errorf("deleted ident still resolves: %v", err)
	}
	if _, err := st.GetByToken(ctx, "tok-1"); !IsNotFound(err) {
		t.Errorf("deleted token still resolves: %v", err)
	}

	ok, err = st.Delete(ctx, "svc-a")
	if err != nil {
		t.Fatalf("second Delete() failed: %v", err)
	}
	if ok {
		t.Error("second Delete() reported a row")
	}
}
