package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage/memory"
)

func TestOpenStoreSQLite(t *testing.T) {
	store, err := OpenStore(BackendSQLite, Config{Path: filepath.Join(t.TempDir(), "cache.db")})
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenStoreMemory(t *testing.T) {
	store, err := OpenStore(BackendMemory, Config{})
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	if _, err := OpenStore("postgres", Config{}); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestEntityDataRoundTrip(t *testing.T) {
	manager := NewManager(memory.New())
	ctx := context.Background()

	payload := []byte(`{"id":"123","name":"Test Campaign"}`)
	key, err := manager.StoreEntityData(ctx, storage.EntityCampaign, "1234567890", payload, 5*time.Minute, map[string]any{"campaign_id": "123"})
	if err != nil {
		t.Fatalf("store entity: %v", err)
	}
	if key == "" {
		t.Fatal("expected non-empty key")
	}

	got, found, err := manager.GetEntityData(ctx, storage.EntityCampaign, "1234567890", map[string]any{"campaign_id": "123"})
	if err != nil || !found {
		t.Fatalf("get entity: found=%v err=%v", found, err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload = %q, want %q", got, payload)
	}

	stats, err := manager.Store().Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[storage.DomainCampaignCache] != 1 {
		t.Fatalf("campaign_cache count = %d, want 1", stats[storage.DomainCampaignCache])
	}
}

func TestEntityDataRejectsUnknownType(t *testing.T) {
	manager := NewManager(memory.New())
	ctx := context.Background()

	if _, err := manager.StoreEntityData(ctx, "ad_group", "1234567890", []byte("{}"), time.Minute, nil); err == nil {
		t.Fatal("expected store error for unknown entity type")
	}
	if _, _, err := manager.GetEntityData(ctx, "ad_group", "1234567890", nil); err == nil {
		t.Fatal("expected get error for unknown entity type")
	}
}

func TestEntityDataTenantIsolation(t *testing.T) {
	manager := NewManager(memory.New())
	ctx := context.Background()

	if _, err := manager.StoreEntityData(ctx, storage.EntityCampaign, "1111111111", []byte("one"), time.Minute, nil); err != nil {
		t.Fatalf("store first tenant: %v", err)
	}
	if _, err := manager.StoreEntityData(ctx, storage.EntityCampaign, "2222222222", []byte("two"), time.Minute, nil); err != nil {
		t.Fatalf("store second tenant: %v", err)
	}

	got, found, err := manager.GetEntityData(ctx, storage.EntityCampaign, "1111111111", nil)
	if err != nil || !found {
		t.Fatalf("get first tenant: found=%v err=%v", found, err)
	}
	if string(got) != "one" {
		t.Fatalf("tenant 1 payload = %q, want one", got)
	}
	got, found, err = manager.GetEntityData(ctx, storage.EntityCampaign, "2222222222", nil)
	if err != nil || !found {
		t.Fatalf("get second tenant: found=%v err=%v", found, err)
	}
	if string(got) != "two" {
		t.Fatalf("tenant 2 payload = %q, want two", got)
	}
}

func TestAPIResponseRoundTrip(t *testing.T) {
	manager := NewManager(memory.New())
	ctx := context.Background()

	params := map[string]any{"start_date": "2026-08-01", "end_date": "2026-08-21"}
	if _, err := manager.StoreAPIResponse(ctx, "get_campaigns", "1234567890", params, []byte("rows"), time.Minute); err != nil {
		t.Fatalf("store api response: %v", err)
	}

	got, found, err := manager.GetAPIResponse(ctx, "get_campaigns", "1234567890", map[string]any{"end_date": "2026-08-21", "start_date": "2026-08-01"})
	if err != nil || !found {
		t.Fatalf("get api response: found=%v err=%v", found, err)
	}
	if string(got) != "rows" {
		t.Fatalf("payload = %q, want rows", got)
	}

	_, found, err = manager.GetAPIResponse(ctx, "get_campaigns", "1234567890", map[string]any{"start_date": "2026-08-02"})
	if err != nil {
		t.Fatalf("different params: %v", err)
	}
	if found {
		t.Fatal("different params must miss")
	}
}

func TestInvalidateClearsOnlyEntityDomain(t *testing.T) {
	manager := NewManager(memory.New())
	ctx := context.Background()

	if _, err := manager.StoreEntityData(ctx, storage.EntityBudget, "1234567890", []byte("b"), time.Minute, nil); err != nil {
		t.Fatalf("store budget: %v", err)
	}
	if _, err := manager.StoreEntityData(ctx, storage.EntityCampaign, "1234567890", []byte("c"), time.Minute, nil); err != nil {
		t.Fatalf("store campaign: %v", err)
	}

	if err := manager.Invalidate(ctx, storage.EntityBudget); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	stats, err := manager.Store().Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[storage.DomainBudgetCache] != 0 {
		t.Fatalf("budget_cache count = %d, want 0", stats[storage.DomainBudgetCache])
	}
	if stats[storage.DomainCampaignCache] != 1 {
		t.Fatalf("campaign_cache count = %d, want 1", stats[storage.DomainCampaignCache])
	}
}
