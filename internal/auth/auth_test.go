package auth

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestGenerateKey(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), "")
	ctx := context.Background()

	rawKey, key, err := mgr.GenerateKey(ctx, " fraud-team@example.org ", "Content editor", RoleEditor, 0)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	if !strings.HasPrefix(rawKey, "sk_") {
		t.Errorf("Expected raw key to start with sk_, got %s", rawKey[:10])
	}
	if len(rawKey) != 67 { // "sk_" + 64 hex chars
		t.Errorf("Expected raw key length 67, got %d", len(rawKey))
	}
	if !strings.HasPrefix(key.ID, "ak_") {
		t.Errorf("Expected key ID to start with ak_, got %s", key.ID)
	}
	if key.Owner != "fraud-team@example.org" {
		t.Errorf("Expected trimmed owner, got %q", key.Owner)
	}
	if key.Role != RoleEditor {
		t.Errorf("Expected editor role, got %s", key.Role)
	}
	if key.ExpiresAt != nil {
		t.Error("Zero ttl should not set an expiry")
	}
}

func TestGenerateKey_InvalidRole(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), "")
	if _, _, err := mgr.GenerateKey(context.Background(), "x", "x", "owner", 0); err != ErrInvalidRole {
		t.Errorf("Expected ErrInvalidRole, got %v", err)
	}
}

func TestValidateKey(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), "")
	ctx := context.Background()

	rawKey, _, err := mgr.GenerateKey(ctx, "editor@example.org", "Primary", RoleEditor, 0)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	key, err := mgr.ValidateKey(ctx, rawKey)
	if err != nil {
		t.Errorf("ValidateKey failed for valid key: %v", err)
	}
	if key.Owner != "editor@example.org" {
		t.Errorf("Expected owner editor@example.org, got %s", key.Owner)
	}

	if _, err := mgr.ValidateKey(ctx, "Bearer "+rawKey); err != nil {
		t.Errorf("ValidateKey failed with Bearer prefix: %v", err)
	}

	if _, err := mgr.ValidateKey(ctx, "sk_wrongkey12345678901234567890123456789012345678901234567890"); err != ErrInvalidAPIKey {
		t.Errorf("Expected ErrInvalidAPIKey for wrong key, got: %v", err)
	}
	if _, err := mgr.ValidateKey(ctx, ""); err != ErrNoAPIKey {
		t.Errorf("Expected ErrNoAPIKey for empty key, got: %v", err)
	}
	if _, err := mgr.ValidateKey(ctx, "not_a_valid_key"); err != ErrInvalidAPIKey {
		t.Errorf("Expected ErrInvalidAPIKey for malformed key, got: %v", err)
	}
}

func TestValidateKey_Expired(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), "")
	ctx := context.Background()

	rawKey, _, err := mgr.GenerateKey(ctx, "temp@example.org", "Temp", RoleViewer, time.Millisecond)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := mgr.ValidateKey(ctx, rawKey); err != ErrInvalidAPIKey {
		t.Errorf("Expected ErrInvalidAPIKey for expired key, got: %v", err)
	}
}

func TestListKeys(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), "")
	ctx := context.Background()

	for _, name := range []string{"Key 1", "Key 2", "Key 3"} {
		if _, _, err := mgr.GenerateKey(ctx, "team", name, RoleViewer, 0); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := mgr.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if len(keys) != 3 {
		t.Errorf("Expected 3 keys, got %d", len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i].CreatedAt.After(keys[i-1].CreatedAt) {
			t.Error("Keys should be listed newest first")
		}
	}
}

func TestRevokeKey(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), "")
	ctx := context.Background()

	rawKey, key, _ := mgr.GenerateKey(ctx, "team", "To revoke", RoleEditor, 0)

	if _, err := mgr.ValidateKey(ctx, rawKey); err != nil {
		t.Errorf("Key should be valid before revoke")
	}
	if err := mgr.RevokeKey(ctx, key.ID); err != nil {
		t.Fatalf("RevokeKey failed: %v", err)
	}
	if _, err := mgr.ValidateKey(ctx, rawKey); err != ErrInvalidAPIKey {
		t.Errorf("Expected ErrInvalidAPIKey after revoke, got: %v", err)
	}
	if err := mgr.RevokeKey(ctx, key.ID); err != ErrKeyNotFound {
		t.Errorf("Revoking twice should report ErrKeyNotFound, got %v", err)
	}
	if err := mgr.RevokeKey(ctx, "ak_missing"); err != ErrKeyNotFound {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestMemoryStore_UpdateNeverUnrevokes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := &APIKey{ID: "ak_1", Hash: "h", Role: RoleEditor}
	if err := store.Create(ctx, key); err != nil {
		t.Fatal(err)
	}

	if err := store.Update(ctx, &APIKey{ID: "ak_1", Revoked: true}); err != nil {
		t.Fatal(err)
	}
	// A stale last-used write must not clear the revocation.
	if err := store.Update(ctx, &APIKey{ID: "ak_1", LastUsed: time.Now()}); err != nil {
		t.Fatal(err)
	}

	keys, _ := store.List(ctx)
	if !keys[0].Revoked {
		t.Error("Key should stay revoked")
	}
	if keys[0].LastUsed.IsZero() {
		t.Error("LastUsed should be recorded")
	}
	if err := store.Update(ctx, &APIKey{ID: "ak_missing"}); err != ErrKeyNotFound {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestRoleAllows(t *testing.T) {
	cases := []struct {
		have, need Role
		want       bool
	}{
		{RoleEditor, RoleEditor, true},
		{RoleEditor, RoleViewer, true},
		{RoleViewer, RoleViewer, true},
		{RoleViewer, RoleEditor, false},
		{"", RoleViewer, false},
	}
	for _, tc := range cases {
		if got := tc.have.Allows(tc.need); got != tc.want {
			t.Errorf("%q.Allows(%q) = %v, want %v", tc.have, tc.need, got, tc.want)
		}
	}
}

func TestIsAdminSecret(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), "correct-horse-battery")
	if !mgr.IsAdminSecret("correct-horse-battery") {
		t.Error("Matching secret should be accepted")
	}
	if mgr.IsAdminSecret("correct-horse") || mgr.IsAdminSecret("") {
		t.Error("Wrong or empty secret should be rejected")
	}

	disabled := NewManager(NewMemoryStore(), "")
	if disabled.IsAdminSecret("") {
		t.Error("Empty configured secret disables admin access")
	}
}

func TestKeyHashNotExposed(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), "")
	ctx := context.Background()

	rawKey, _, _ := mgr.GenerateKey(ctx, "team", "Test", RoleViewer, 0)
	key, _ := mgr.ValidateKey(ctx, rawKey)

	if key.Hash == rawKey {
		t.Error("Hash should not equal raw key")
	}
	if key.Hash == "" {
		t.Error("Hash should be set")
	}
}
