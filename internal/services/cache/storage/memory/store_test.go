package memory

import (
	"context"
	"testing"
	"time"

	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.Put(ctx, storage.DomainCampaignCache, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, found, err := store.Get(ctx, storage.DomainCampaignCache, "k")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if string(got) != "v" {
		t.Fatalf("payload = %q, want v", got)
	}
}

func TestGetExpiredDeletesRecord(t *testing.T) {
	store := New()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	if err := store.Put(ctx, storage.DomainAPICache, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("put: %v", err)
	}

	store.now = func() time.Time { return base.Add(time.Second) }
	_, found, err := store.Get(ctx, storage.DomainAPICache, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("record at exact expiry must read as expired")
	}

	count, err := store.Count(ctx, storage.DomainAPICache)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expired record still stored, count = %d", count)
	}
}

func TestUnknownDomainRejected(t *testing.T) {
	store := New()
	ctx := context.Background()
	if err := store.Put(ctx, "bogus_cache", "k", []byte("v"), time.Minute); err == nil {
		t.Fatal("expected put error")
	}
	if _, _, err := store.Get(ctx, "bogus_cache", "k"); err == nil {
		t.Fatal("expected get error")
	}
	if _, err := store.Count(ctx, "bogus_cache"); err == nil {
		t.Fatal("expected count error")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.Put(ctx, storage.DomainAPICache, "k", []byte("abc"), time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _, err := store.Get(ctx, storage.DomainAPICache, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got[0] = 'x'

	again, _, err := store.Get(ctx, storage.DomainAPICache, "k")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if string(again) != "abc" {
		t.Fatalf("stored payload mutated through returned slice: %q", again)
	}
}

func TestClearSelective(t *testing.T) {
	store := New()
	ctx := context.Background()

	_ = store.Put(ctx, storage.DomainCampaignCache, "c", []byte("1"), time.Minute)
	_ = store.Put(ctx, storage.DomainBudgetCache, "b", []byte("2"), time.Minute)

	if err := store.Clear(ctx, storage.DomainCampaignCache); err != nil {
		t.Fatalf("clear: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[storage.DomainCampaignCache] != 0 || stats[storage.DomainBudgetCache] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestPruneOlderThan(t *testing.T) {
	store := New()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	_ = store.Put(ctx, storage.DomainAPICache, "old", []byte("v"), time.Hour)

	store.now = func() time.Time { return base.Add(10 * time.Minute) }
	_ = store.Put(ctx, storage.DomainAPICache, "fresh", []byte("v"), time.Hour)

	pruned, err := store.PruneOlderThan(ctx, storage.DomainAPICache, 5*time.Minute)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("pruned = %d, want 1", pruned)
	}
}

func TestExecuteTransactionAtomicity(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.ExecuteTransaction(ctx, []storage.Statement{
		{Op: storage.StatementPut, Domain: storage.DomainCampaignCache, Key: "tx-key", Payload: []byte("v"), TTL: time.Minute},
		{Op: storage.StatementPut, Domain: "bogus_cache", Key: "other", Payload: []byte("v"), TTL: time.Minute},
	})
	if err == nil {
		t.Fatal("expected batch failure")
	}

	_, found, getErr := store.Get(ctx, storage.DomainCampaignCache, "tx-key")
	if getErr != nil {
		t.Fatalf("get: %v", getErr)
	}
	if found {
		t.Fatal("statement 1 must leave no trace after batch failure")
	}
}

func TestAccessGrantsAndChecks(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.GrantAccountAccess(ctx, "user-1", "1111111111", storage.AccessWrite); err != nil {
		t.Fatalf("grant: %v", err)
	}

	ok, err := store.CheckAccountAccess(ctx, "user-1", "1111111111", storage.AccessRead)
	if err != nil || !ok {
		t.Fatalf("write grant must satisfy read: ok=%v err=%v", ok, err)
	}
	ok, err = store.CheckAccountAccess(ctx, "user-1", "1111111111", storage.AccessAdmin)
	if err != nil {
		t.Fatalf("check admin: %v", err)
	}
	if ok {
		t.Fatal("write grant must not satisfy admin")
	}

	grants, err := store.ListUserAccounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(grants) != 1 || grants[0].CustomerID != "1111111111" {
		t.Fatalf("unexpected grants: %+v", grants)
	}
}

func TestConfigFallback(t *testing.T) {
	store := New()
	ctx := context.Background()

	_ = store.PutConfig(ctx, "k", []byte("sys"), "")
	_ = store.PutConfig(ctx, "k", []byte("usr"), "user-1")

	got, found, err := store.GetConfig(ctx, "k", "user-1")
	if err != nil || !found || string(got) != "usr" {
		t.Fatalf("user scope: got=%q found=%v err=%v", got, found, err)
	}
	got, found, err = store.GetConfig(ctx, "k", "user-2")
	if err != nil || !found || string(got) != "sys" {
		t.Fatalf("fallback: got=%q found=%v err=%v", got, found, err)
	}
	_, found, err = store.GetConfig(ctx, "missing", "user-1")
	if err != nil {
		t.Fatalf("missing key: %v", err)
	}
	if found {
		t.Fatal("missing key must be absent")
	}
}
