package openlibrary_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelfmark/internal/services/openlibrary"
)

func TestSearchDecodesDocs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "le guin" {
			t.Errorf("unexpected query: %q", r.URL.Query().Get("q"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"numFound":1,"start":0,"docs":[{"key":"/works/OL45883W","title":"The Left Hand of Darkness","author_name":["Ursula K. Le Guin"],"first_publish_year":1969,"edition_count":70}]}`))
	}))
	defer server.Close()

	client, err := openlibrary.New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	resp, err := client.Search(context.Background(), "le guin", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if resp.NumFound != 1 || len(resp.Docs) != 1 {
		t.Fatalf("unexpected response: %#v", resp)
	}
	doc := resp.Docs[0]
	if doc.Title != "The Left Hand of Darkness" || doc.Author() != "Ursula K. Le Guin" {
		t.Fatalf("unexpected doc: %#v", doc)
	}
	if doc.FirstPublishYear != 1969 {
		t.Fatalf("unexpected year: %d", doc.FirstPublishYear)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	client, err := openlibrary.New("https://openlibrary.org")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.Search(context.Background(), "", 10); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := openlibrary.New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.Search(context.Background(), "dune", 10); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestAuthorFallsBackToEmpty(t *testing.T) {
	var doc openlibrary.Doc
	if doc.Author() != "" {
		t.Fatalf("expected empty author, got %q", doc.Author())
	}
}
