package queue_test

import (
	"context"
	"fmt"
	"testing"

	"shelfmark/internal/queue"
	"shelfmark/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewDownload(ctx, "The Dispossessed", "Ursula K. Le Guin", "annas-archive", "ebook", "alice")
	if err != nil {
		t.Fatalf("NewDownload failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "The Dispossessed" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
	if fetched.Author != "Ursula K. Le Guin" || fetched.RequestedBy != "alice" {
		t.Fatalf("unexpected fetched fields: %#v", fetched)
	}
}

func TestUpdatePersistsProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewDownload(t, store, "Hyperion", "prowlarr", "audiobook")

	item.Status = queue.StatusDownloading
	item.SetProgress("Downloading release", 42.5)
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusDownloading {
		t.Fatalf("expected downloading status, got %s", fetched.Status)
	}
	if fetched.ProgressPercent != 42.5 || fetched.ProgressMessage != "Downloading release" {
		t.Fatalf("unexpected progress: %#v", fetched)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		testsupport.NewDownload(t, store, fmt.Sprintf("Book %d", i), "annas-archive", "ebook")
	}
	failed := testsupport.NewDownload(t, store, "Broken", "annas-archive", "ebook")
	failed.SetFailed("no releases found")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	pending, err := store.List(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending items, got %d", len(pending))
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List all failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 items, got %d", len(all))
	}
}

func TestNextForStatusesReturnsOldest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewDownload(t, store, "First", "annas-archive", "ebook")
	testsupport.NewDownload(t, store, "Second", "annas-archive", "ebook")

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest pending item, got %#v", next)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		status queue.Status
		reset  bool
	}{
		{queue.StatusSearching, true},
		{queue.StatusGrabbing, true},
		{queue.StatusDownloading, true},
		{queue.StatusCompleted, false},
		{queue.StatusFailed, false},
	}
	for i, tc := range cases {
		item := testsupport.NewDownload(t, store, fmt.Sprintf("Item %d", i), "annas-archive", "ebook")
		item.Status = tc.status
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if reset != 3 {
		t.Fatalf("expected 3 items reset, got %d", reset)
	}

	pending, err := store.List(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending items after reset, got %d", len(pending))
	}
}

func TestRetryFailedSelectsIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var failedIDs []int64
	for i := 0; i < 2; i++ {
		item := testsupport.NewDownload(t, store, fmt.Sprintf("Failed %d", i), "annas-archive", "ebook")
		item.SetFailed("search returned nothing")
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		failedIDs = append(failedIDs, item.ID)
	}

	retried, err := store.RetryFailed(ctx, failedIDs[0])
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected 1 item retried, got %d", retried)
	}

	first, err := store.GetByID(ctx, failedIDs[0])
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if first.Status != queue.StatusPending || first.ErrorMessage != "" {
		t.Fatalf("expected cleared pending item, got %#v", first)
	}

	second, err := store.GetByID(ctx, failedIDs[1])
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if second.Status != queue.StatusFailed {
		t.Fatalf("expected second item untouched, got %s", second.Status)
	}
}

func TestRequestLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	request := testsupport.NewRequest(t, store, "A Memory Called Empire", "bob", "request_book")
	if request.UUID == "" {
		t.Fatal("expected request UUID to be assigned")
	}
	if request.Status != queue.RequestPending {
		t.Fatalf("expected pending request, got %s", request.Status)
	}

	byUUID, err := store.RequestByUUID(ctx, request.UUID)
	if err != nil {
		t.Fatalf("RequestByUUID failed: %v", err)
	}
	if byUUID == nil || byUUID.ID != request.ID {
		t.Fatalf("expected request by uuid, got %#v", byUUID)
	}

	download, err := store.NewDownloadForRequest(ctx, request)
	if err != nil {
		t.Fatalf("NewDownloadForRequest failed: %v", err)
	}
	if download.RequestID != request.ID {
		t.Fatalf("expected download linked to request, got %#v", download)
	}

	request.Status = queue.RequestApproved
	request.DecidedBy = "admin"
	request.DownloadID = download.ID
	if err := store.UpdateRequest(ctx, request); err != nil {
		t.Fatalf("UpdateRequest failed: %v", err)
	}

	fetched, err := store.RequestByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("RequestByID failed: %v", err)
	}
	if fetched.Status != queue.RequestApproved || fetched.DownloadID != download.ID || fetched.DecidedBy != "admin" {
		t.Fatalf("unexpected request after approval: %#v", fetched)
	}
}

func TestFindPendingDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	request := testsupport.NewRequest(t, store, "Piranesi", "carol", "request_book")

	dup, err := store.FindPendingDuplicate(ctx, "carol", "Piranesi", "", "ebook")
	if err != nil {
		t.Fatalf("FindPendingDuplicate failed: %v", err)
	}
	if dup == nil || dup.ID != request.ID {
		t.Fatalf("expected duplicate match, got %#v", dup)
	}

	none, err := store.FindPendingDuplicate(ctx, "dave", "Piranesi", "", "ebook")
	if err != nil {
		t.Fatalf("FindPendingDuplicate failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no duplicate for other user, got %#v", none)
	}

	request.Status = queue.RequestDenied
	if err := store.UpdateRequest(ctx, request); err != nil {
		t.Fatalf("UpdateRequest failed: %v", err)
	}
	decided, err := store.FindPendingDuplicate(ctx, "carol", "Piranesi", "", "ebook")
	if err != nil {
		t.Fatalf("FindPendingDuplicate failed: %v", err)
	}
	if decided != nil {
		t.Fatalf("expected no duplicate after decision, got %#v", decided)
	}
}

func TestUserUpsertAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	user, err := store.UpsertUser(ctx, "alice", queue.RoleMember, true)
	if err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if user.Role != queue.RoleMember || !user.CanDownload {
		t.Fatalf("unexpected user: %#v", user)
	}

	promoted, err := store.UpsertUser(ctx, "alice", queue.RoleAdmin, false)
	if err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if promoted.ID != user.ID {
		t.Fatalf("expected same row on upsert, got %d and %d", user.ID, promoted.ID)
	}
	if !promoted.IsAdmin() || promoted.CanDownload {
		t.Fatalf("unexpected promoted user: %#v", promoted)
	}

	if _, err := store.UpsertUser(ctx, "bob", queue.RoleMember, true); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 || users[0].Username != "alice" {
		t.Fatalf("unexpected user list: %#v", users)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewDownload(t, store, "Pending", "annas-archive", "ebook")
	active := testsupport.NewDownload(t, store, "Active", "prowlarr", "audiobook")
	active.Status = queue.StatusDownloading
	if err := store.Update(ctx, active); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	done := testsupport.NewDownload(t, store, "Done", "annas-archive", "ebook")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 3 || health.Pending != 1 || health.Processing != 1 || health.Completed != 1 {
		t.Fatalf("unexpected health summary: %#v", health)
	}

	dbHealth, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !dbHealth.DatabaseExists || !dbHealth.DatabaseReadable || !dbHealth.TableExists {
		t.Fatalf("unexpected database health: %#v", dbHealth)
	}
	if dbHealth.TotalItems != 3 {
		t.Fatalf("expected 3 items, got %d", dbHealth.TotalItems)
	}
}

func TestClearVariants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	done := testsupport.NewDownload(t, store, "Done", "annas-archive", "ebook")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	failed := testsupport.NewDownload(t, store, "Failed", "annas-archive", "ebook")
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	testsupport.NewDownload(t, store, "Pending", "annas-archive", "ebook")

	cleared, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted failed: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 completed cleared, got %d", cleared)
	}

	cleared, err = store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed failed: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 failed cleared, got %d", cleared)
	}

	cleared, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 remaining cleared, got %d", cleared)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  queue.Status
		ok    bool
	}{
		{"pending", queue.StatusPending, true},
		{"  Downloading ", queue.StatusDownloading, true},
		{"COMPLETED", queue.StatusCompleted, true},
		{"unknown", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := queue.ParseStatus(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseStatus(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseStatus(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}
