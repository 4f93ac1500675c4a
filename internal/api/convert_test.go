package api_test

import (
	"testing"
	"time"

	"shelfmark/internal/api"
	"shelfmark/internal/policy"
	"shelfmark/internal/queue"
	"shelfmark/internal/search"
)

func TestFromDownloadMapsFields(t *testing.T) {
	created := time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC)
	item := &queue.Item{
		ID:              7,
		Title:           "Dune",
		Author:          "Frank Herbert",
		Source:          "prowlarr",
		ContentType:     "ebook",
		Status:          queue.StatusDownloading,
		RequestID:       3,
		RequestedBy:     "alice",
		ProgressPercent: 42.5,
		ProgressMessage: "Downloading release",
		CreatedAt:       created,
		UpdatedAt:       created.Add(time.Minute),
	}

	dto := api.FromDownload(item)
	if dto.ID != 7 || dto.Title != "Dune" || dto.Status != "downloading" {
		t.Fatalf("unexpected DTO: %+v", dto)
	}
	if dto.Progress.Percent != 42.5 || dto.Progress.Message != "Downloading release" {
		t.Fatalf("unexpected progress: %+v", dto.Progress)
	}
	if dto.RequestID != 3 || dto.RequestedBy != "alice" {
		t.Fatalf("request linkage lost: %+v", dto)
	}
	if dto.CreatedAt != "2026-03-02T10:30:00.000Z" {
		t.Fatalf("unexpected createdAt: %q", dto.CreatedAt)
	}
}

func TestFromDownloadNil(t *testing.T) {
	if dto := api.FromDownload(nil); dto.ID != 0 || dto.Title != "" {
		t.Fatalf("expected zero DTO, got %+v", dto)
	}
	if out := api.FromDownloads(nil); out != nil {
		t.Fatalf("expected nil slice, got %v", out)
	}
}

func TestFromRequestMapsDecision(t *testing.T) {
	req := &queue.Request{
		ID:         2,
		UUID:       "abc-123",
		Title:      "Hyperion",
		Mode:       "request_book",
		Status:     queue.RequestApproved,
		Username:   "bob",
		DecidedBy:  "admin",
		DownloadID: 11,
	}
	dto := api.FromRequest(req)
	if dto.UUID != "abc-123" || dto.Status != "approved" {
		t.Fatalf("unexpected DTO: %+v", dto)
	}
	if dto.Mode != "request_book" || dto.DecidedBy != "admin" || dto.DownloadID != 11 {
		t.Fatalf("decision fields lost: %+v", dto)
	}
}

func TestFromPolicySnapshot(t *testing.T) {
	if snap := api.FromPolicy(nil); snap.RequestsEnabled {
		t.Fatalf("nil policy should report disabled: %+v", snap)
	}

	pol := &policy.Policy{
		RequestsEnabled: true,
		AllowNotes:      true,
		Defaults:        map[string]policy.Mode{"ebook": policy.ModeRequestBook},
		SourceModes: []policy.SourceMode{{
			Source:                "annas-archive",
			SupportedContentTypes: []string{"ebook"},
			Modes:                 map[string]policy.Mode{"ebook": policy.ModeDownload},
		}},
	}
	snap := api.FromPolicy(pol)
	if !snap.RequestsEnabled || !snap.AllowNotes {
		t.Fatalf("flags lost: %+v", snap)
	}
	if snap.Defaults["ebook"] != "request_book" {
		t.Fatalf("defaults lost: %+v", snap.Defaults)
	}
	if len(snap.SourceModes) != 1 || snap.SourceModes[0].Modes["ebook"] != "download" {
		t.Fatalf("source modes lost: %+v", snap.SourceModes)
	}
}

func TestFromSearchResultIncludesMode(t *testing.T) {
	dto := api.FromSearchResult(search.Result{
		Title:       "Dune",
		Source:      "prowlarr",
		ContentType: "ebook",
		Seeders:     12,
		Mode:        policy.ModeRequestRelease,
	})
	if dto.Mode != "request_release" || dto.Seeders != 12 {
		t.Fatalf("unexpected DTO: %+v", dto)
	}
}

func TestSortDownloadsNewestFirst(t *testing.T) {
	items := []api.Download{
		{ID: 1, CreatedAt: "2026-01-01T00:00:00.000Z"},
		{ID: 3, CreatedAt: "2026-01-02T00:00:00.000Z"},
		{ID: 2, CreatedAt: "2026-01-02T00:00:00.000Z"},
	}
	sorted := api.SortDownloadsNewestFirst(items)
	if sorted[0].ID != 3 || sorted[1].ID != 2 || sorted[2].ID != 1 {
		t.Fatalf("unexpected order: %+v", sorted)
	}
}
