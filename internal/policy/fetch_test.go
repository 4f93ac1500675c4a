package policy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPFetcherDecodesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("missing accept header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"requests_enabled":true,"defaults":{"ebook":"request_book"}}`))
	}))
	defer srv.Close()

	fetch, err := NewHTTPFetcher(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewHTTPFetcher failed: %v", err)
	}
	pol, err := fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !pol.RequestsEnabled || pol.Defaults["ebook"] != ModeRequestBook {
		t.Fatalf("unexpected policy: %+v", pol)
	}
}

func TestHTTPFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	fetch, err := NewHTTPFetcher(srv.URL, nil)
	if err != nil {
		t.Fatalf("NewHTTPFetcher failed: %v", err)
	}
	if _, err := fetch(context.Background()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestHTTPFetcherRequiresEndpoint(t *testing.T) {
	if _, err := NewHTTPFetcher("  ", nil); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}

func TestStaticFetcherCopies(t *testing.T) {
	pol := &Policy{RequestsEnabled: true}
	fetch := NewStaticFetcher(pol)
	got, err := fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got == pol {
		t.Fatal("expected a copy, got the same pointer")
	}
	if !got.RequestsEnabled {
		t.Fatal("expected flags preserved")
	}
}
