package api_test

import (
	"context"
	"testing"

	"shelfmark/internal/api"
	"shelfmark/internal/testsupport"
)

func TestActivityFeedMergesDownloadsAndRequests(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	service := api.NewActivityService(store)

	testsupport.NewDownload(t, store, "Dune", "prowlarr", "ebook")
	testsupport.NewRequest(t, store, "Hyperion", "alice", "request_book")

	entries, err := service.Feed(context.Background())
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	kinds := map[string]bool{}
	for _, entry := range entries {
		kinds[entry.Kind] = true
		if entry.Timestamp == "" {
			t.Fatalf("entry missing timestamp: %+v", entry)
		}
	}
	if !kinds["download"] || !kinds["request"] {
		t.Fatalf("expected both kinds, got %v", kinds)
	}
}
