package api_test

import (
	"context"
	"testing"

	"shelfmark/internal/api"
	"shelfmark/internal/queue"
	"shelfmark/internal/testsupport"
)

func TestQueueServiceListAndDescribe(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	service := api.NewQueueService(store)

	item := testsupport.NewDownload(t, store, "Dune", "prowlarr", "ebook")
	item.Status = queue.StatusFailed
	item.ErrorMessage = "no releases"
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	testsupport.NewDownload(t, store, "Hyperion", "prowlarr", "ebook")

	all, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 downloads, got %d", len(all))
	}

	failed, err := service.List(context.Background(), queue.StatusFailed)
	if err != nil {
		t.Fatalf("List(failed) failed: %v", err)
	}
	if len(failed) != 1 || failed[0].Title != "Dune" {
		t.Fatalf("unexpected failed list: %+v", failed)
	}

	dto, err := service.Describe(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if dto == nil || dto.ErrorMessage != "no releases" {
		t.Fatalf("unexpected DTO: %+v", dto)
	}

	missing, err := service.Describe(context.Background(), 9999)
	if err != nil {
		t.Fatalf("Describe(miss) failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown ID, got %+v", missing)
	}
}

func TestQueueServiceStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	service := api.NewQueueService(store)

	testsupport.NewDownload(t, store, "Dune", "prowlarr", "ebook")
	testsupport.NewDownload(t, store, "Hyperion", "prowlarr", "ebook")

	stats, err := service.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats["pending"] != 2 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestNewQueueServiceNilStore(t *testing.T) {
	if service := api.NewQueueService(nil); service != nil {
		t.Fatal("expected nil service for nil store")
	}
}
