package sqlite

import (
	"context"
	"testing"

	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
)

func TestUserProfileRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutUserProfile(ctx, "user-1", []byte(`{"email":"a@example.com"}`)); err != nil {
		t.Fatalf("put profile: %v", err)
	}
	got, found, err := store.GetUserProfile(ctx, "user-1")
	if err != nil || !found {
		t.Fatalf("get profile: found=%v err=%v", found, err)
	}
	if string(got) != `{"email":"a@example.com"}` {
		t.Fatalf("payload = %q", got)
	}

	// Last write wins.
	if err := store.PutUserProfile(ctx, "user-1", []byte(`{"email":"b@example.com"}`)); err != nil {
		t.Fatalf("overwrite profile: %v", err)
	}
	got, _, err = store.GetUserProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if string(got) != `{"email":"b@example.com"}` {
		t.Fatalf("payload after overwrite = %q", got)
	}

	_, found, err = store.GetUserProfile(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing profile: %v", err)
	}
	if found {
		t.Fatal("expected absent profile")
	}
}

func TestAccessHierarchyMonotonic(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.GrantAccountAccess(ctx, "admin-user", "1234567890", storage.AccessAdmin); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	for _, required := range []storage.AccessLevel{storage.AccessRead, storage.AccessWrite, storage.AccessAdmin} {
		ok, err := store.CheckAccountAccess(ctx, "admin-user", "1234567890", required)
		if err != nil {
			t.Fatalf("check %s: %v", required, err)
		}
		if !ok {
			t.Fatalf("admin grant must satisfy %s", required)
		}
	}

	if err := store.GrantAccountAccess(ctx, "reader", "1234567890", storage.AccessRead); err != nil {
		t.Fatalf("grant read: %v", err)
	}
	for _, required := range []storage.AccessLevel{storage.AccessWrite, storage.AccessAdmin} {
		ok, err := store.CheckAccountAccess(ctx, "reader", "1234567890", required)
		if err != nil {
			t.Fatalf("check %s: %v", required, err)
		}
		if ok {
			t.Fatalf("read grant must not satisfy %s", required)
		}
	}
}

func TestNoGrantFailsEveryLevel(t *testing.T) {
	store := openTestStore(t)
	ok, err := store.CheckAccountAccess(context.Background(), "stranger", "1234567890", storage.AccessRead)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if ok {
		t.Fatal("missing grant must fail read check")
	}
}

func TestLaterGrantReplacesPrior(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.GrantAccountAccess(ctx, "user-1", "1234567890", storage.AccessAdmin); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	if err := store.GrantAccountAccess(ctx, "user-1", "1234567890", storage.AccessRead); err != nil {
		t.Fatalf("downgrade to read: %v", err)
	}

	ok, err := store.CheckAccountAccess(ctx, "user-1", "1234567890", storage.AccessWrite)
	if err != nil {
		t.Fatalf("check write: %v", err)
	}
	if ok {
		t.Fatal("downgraded grant must not keep write access")
	}

	grants, err := store.ListUserAccounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("grants = %d, want 1", len(grants))
	}
	if grants[0].Level != storage.AccessRead {
		t.Fatalf("level = %s, want read", grants[0].Level)
	}
}

func TestGrantRejectsUnknownLevel(t *testing.T) {
	store := openTestStore(t)
	if err := store.GrantAccountAccess(context.Background(), "user-1", "1234567890", "owner"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := store.CheckAccountAccess(context.Background(), "user-1", "1234567890", "owner"); err == nil {
		t.Fatal("expected error for unknown required level")
	}
}

func TestConfigFallback(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutConfig(ctx, "default_ttl", []byte("900"), ""); err != nil {
		t.Fatalf("put system config: %v", err)
	}
	if err := store.PutConfig(ctx, "default_ttl", []byte("300"), "user-1"); err != nil {
		t.Fatalf("put user config: %v", err)
	}

	got, found, err := store.GetConfig(ctx, "default_ttl", "user-1")
	if err != nil || !found {
		t.Fatalf("get user config: found=%v err=%v", found, err)
	}
	if string(got) != "300" {
		t.Fatalf("user scope value = %q, want 300", got)
	}

	got, found, err = store.GetConfig(ctx, "default_ttl", "user-2")
	if err != nil || !found {
		t.Fatalf("fallback config: found=%v err=%v", found, err)
	}
	if string(got) != "900" {
		t.Fatalf("fallback value = %q, want 900", got)
	}

	got, found, err = store.GetConfig(ctx, "default_ttl", "")
	if err != nil || !found {
		t.Fatalf("system config: found=%v err=%v", found, err)
	}
	if string(got) != "900" {
		t.Fatalf("system value = %q, want 900", got)
	}

	_, found, err = store.GetConfig(ctx, "unknown_key", "user-1")
	if err != nil {
		t.Fatalf("get unknown key: %v", err)
	}
	if found {
		t.Fatal("unknown key must be absent")
	}
}
