package testsupport

import (
	"context"
	"testing"

	"shelfmark/internal/config"
	"shelfmark/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewDownload creates a pending download for tests using the provided store.
func NewDownload(t testing.TB, store *queue.Store, title, source, contentType string) *queue.Item {
	t.Helper()

	item, err := store.NewDownload(context.Background(), title, "", source, contentType, "tester")
	if err != nil {
		t.Fatalf("store.NewDownload: %v", err)
	}
	return item
}

// NewRequest creates a pending request for tests using the provided store.
func NewRequest(t testing.TB, store *queue.Store, title, username, mode string) *queue.Request {
	t.Helper()

	request, err := store.NewRequest(context.Background(), &queue.Request{
		Title:       title,
		Source:      "annas-archive",
		ContentType: "ebook",
		Mode:        mode,
		Username:    username,
	})
	if err != nil {
		t.Fatalf("store.NewRequest: %v", err)
	}
	return request
}
