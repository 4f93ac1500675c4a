package prowlarr_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelfmark/internal/services/prowlarr"
)

func TestSearchSendsAPIKeyAndCategories(t *testing.T) {
	var gotKey string
	var gotCategories []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotCategories = r.URL.Query()["categories"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"guid":"g1","title":"The Dispossessed EPUB","indexer":"lib","indexerId":2,"size":1024,"seeders":5,"protocol":"torrent"}]`))
	}))
	defer server.Close()

	client, err := prowlarr.New(server.URL, "secret")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	releases, err := client.Search(context.Background(), "the dispossessed", "ebook")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if len(gotCategories) != 1 || gotCategories[0] != "7000" {
		t.Fatalf("unexpected categories: %v", gotCategories)
	}
	if len(releases) != 1 || releases[0].GUID != "g1" || releases[0].Seeders != 5 {
		t.Fatalf("unexpected releases: %#v", releases)
	}
}

func TestSearchAudiobookCategory(t *testing.T) {
	var gotCategories []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCategories = r.URL.Query()["categories"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := prowlarr.New(server.URL, "secret")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.Search(context.Background(), "hyperion", "audiobook"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(gotCategories) != 1 || gotCategories[0] != "3030" {
		t.Fatalf("unexpected categories: %v", gotCategories)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	client, err := prowlarr.New("http://localhost:9696", "secret")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.Search(context.Background(), "   ", "ebook"); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := prowlarr.New(server.URL, "bad-key")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.Search(context.Background(), "dune", "ebook"); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestGrabPostsGUID(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := prowlarr.New(server.URL, "secret")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := client.Grab(context.Background(), prowlarr.Release{GUID: "g1", IndexerID: 2}); err != nil {
		t.Fatalf("Grab failed: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}

	if err := client.Grab(context.Background(), prowlarr.Release{}); err == nil {
		t.Fatal("expected error for empty guid")
	}
}

func TestNewValidatesInputs(t *testing.T) {
	if _, err := prowlarr.New("", "key"); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := prowlarr.New("http://localhost:9696", ""); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
