package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelfmark/internal/config"
	"shelfmark/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyDownloadCompleted(context.Background(), "Example", ""); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	type captured struct {
		title    string
		message  string
		tags     string
		priority string
	}

	var got captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = captured{
			title:    r.Header.Get("Title"),
			message:  string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Requests = true
	cfg.Notifications.Downloads = true
	cfg.Notifications.Errors = true
	svc := notifications.NewService(&cfg)

	tests := []struct {
		name           string
		send           func() error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "request submitted",
			send: func() error {
				return svc.NotifyRequestSubmitted(context.Background(), "Piranesi", "alice")
			},
			expectTitle:   "Shelfmark - Request Submitted",
			expectMessage: "alice requested: Piranesi",
			expectTags:    "shelfmark,request,submitted",
		},
		{
			name: "request denied",
			send: func() error {
				return svc.NotifyRequestDenied(context.Background(), "Piranesi", "alice", "admin")
			},
			expectTitle:   "Shelfmark - Request Denied",
			expectMessage: "Denied for alice: Piranesi (by admin)",
			expectTags:    "shelfmark,request,denied",
		},
		{
			name: "download completed",
			send: func() error {
				return svc.NotifyDownloadCompleted(context.Background(), "Dune", "/library/Dune.epub")
			},
			expectTitle:    "Shelfmark - Download Complete",
			expectMessage:  "Added to library: Dune\nFile: /library/Dune.epub",
			expectTags:     "shelfmark,download,completed",
			expectPriority: "high",
		},
		{
			name: "download failed",
			send: func() error {
				return svc.NotifyDownloadFailed(context.Background(), "Dune", "no releases found")
			},
			expectTitle:    "Shelfmark - Download Failed",
			expectMessage:  "Download failed: Dune\nReason: no releases found",
			expectTags:     "shelfmark,download,failed",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.send(); err != nil {
				t.Fatalf("notify failed: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.expectTitle)
			}
			if got.message != tc.expectMessage {
				t.Fatalf("message = %q, want %q", got.message, tc.expectMessage)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.expectTags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceRespectsCategoryToggles(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Requests = false
	cfg.Notifications.Downloads = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyRequestSubmitted(context.Background(), "Piranesi", "alice"); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if err := svc.NotifyDownloadStarted(context.Background(), "Dune"); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if requests != 0 {
		t.Fatalf("expected suppressed notifications, got %d requests", requests)
	}
}

func TestNtfyServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
