package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"shelfmark/internal/daemon"
	"shelfmark/internal/ipc"
	"shelfmark/internal/logging"
	"shelfmark/internal/notifications"
	"shelfmark/internal/policy"
	"shelfmark/internal/queue"
	"shelfmark/internal/requests"
	"shelfmark/internal/services/prowlarr"
	"shelfmark/internal/testsupport"
	"shelfmark/internal/users"
	"shelfmark/internal/workflow"
)

type idleDownloader struct{}

func (idleDownloader) SearchRelease(ctx context.Context, item *queue.Item) (prowlarr.Release, error) {
	<-ctx.Done()
	return prowlarr.Release{}, ctx.Err()
}

func (idleDownloader) FetchRelease(ctx context.Context, item *queue.Item, release prowlarr.Release, progress workflow.ProgressFunc) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type fixedPolicies struct {
	pol *policy.Policy
}

func (f fixedPolicies) Refresh(context.Context, policy.RefreshContext) (*policy.Policy, error) {
	return f.pol, nil
}

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, idleDownloader{}, nil, nil, logger)

	pol := &policy.Policy{
		RequestsEnabled: true,
		Defaults:        map[string]policy.Mode{"ebook": policy.ModeRequestBook},
	}
	requestSvc := requests.NewService(store, fixedPolicies{pol: pol}, notifications.NewService(cfg), true, logger)
	userSvc := users.NewService(store, logger)

	d, err := daemon.New(cfg, daemon.Services{
		Store:    store,
		Workflow: mgr,
		Requests: requestSvc,
		Users:    userSvc,
	}, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(cfg.Paths.LogDir, "shelfmark.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon not running before Start")
	}
	if status.QueueDBPath == "" || status.LockPath == "" {
		t.Fatalf("incomplete status: %+v", status)
	}

	if _, err := client.UserAdd(ipc.UserAddRequest{Username: "admin", Role: "admin"}); err != nil {
		t.Fatalf("UserAdd: %v", err)
	}
	if _, err := client.UserAdd(ipc.UserAddRequest{Username: "alice", Role: "member"}); err != nil {
		t.Fatalf("UserAdd member: %v", err)
	}

	submitted, err := client.RequestSubmit(ipc.RequestSubmitRequest{
		Username:    "alice",
		Title:       "Hyperion",
		Source:      "annas-archive",
		ContentType: "ebook",
	})
	if err != nil {
		t.Fatalf("RequestSubmit: %v", err)
	}
	if submitted.Request.Status != "pending" || submitted.Request.Mode != "request_book" {
		t.Fatalf("unexpected request: %+v", submitted.Request)
	}

	if _, err := client.RequestApprove(submitted.Request.UUID, "alice"); err == nil {
		t.Fatal("expected member approval to fail")
	}

	approved, err := client.RequestApprove(submitted.Request.UUID, "admin")
	if err != nil {
		t.Fatalf("RequestApprove: %v", err)
	}
	if approved.Request.Status != "approved" || approved.Request.DownloadID == 0 {
		t.Fatalf("unexpected approved request: %+v", approved.Request)
	}

	queueResp, err := client.QueueList(nil)
	if err != nil {
		t.Fatalf("QueueList: %v", err)
	}
	if len(queueResp.Items) != 1 || queueResp.Items[0].Title != "Hyperion" {
		t.Fatalf("unexpected queue: %+v", queueResp.Items)
	}

	feed, err := client.Activity()
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if len(feed.Entries) != 1 {
		t.Fatalf("expected merged feed with 1 entry, got %d", len(feed.Entries))
	}

	health, err := client.QueueHealth()
	if err != nil {
		t.Fatalf("QueueHealth: %v", err)
	}
	if health.Total != 1 || health.Pending != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}

	removed, err := client.UserRemove("alice")
	if err != nil || !removed.Removed {
		t.Fatalf("UserRemove: removed=%v err=%v", removed, err)
	}
}
