package daemon

import (
	"context"
	"testing"

	"shelfmark/internal/queue"
	"shelfmark/internal/services/prowlarr"
	"shelfmark/internal/testsupport"
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

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := workflow.NewManager(cfg, store, idleDownloader{}, nil, nil, nil)
	d, err := New(cfg, Services{Store: store, Workflow: manager}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newTestDaemon(t)
	defer d.Stop()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}

	status := d.Status(context.Background())
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("expected running daemon, got %+v", status)
	}
	if status.PID == 0 || status.LockFilePath == "" {
		t.Fatalf("incomplete status: %+v", status)
	}

	d.Stop()
	if d.Status(context.Background()).Running {
		t.Fatal("expected stopped daemon")
	}
	// Stop is safe to call twice.
	d.Stop()
}

func TestDaemonQueueMaintenance(t *testing.T) {
	d := newTestDaemon(t)

	item := testsupport.NewDownload(t, d.store, "Dune", "prowlarr", "ebook")
	item.SetFailed("no releases")
	if err := d.store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	updated, err := d.RetryFailed(context.Background(), []int64{item.ID})
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 retried, got %d", updated)
	}

	items, err := d.ListQueue(context.Background(), []queue.Status{queue.StatusPending})
	if err != nil {
		t.Fatalf("ListQueue failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 pending item, got %d", len(items))
	}

	removed, err := d.RemoveQueueItem(context.Background(), item.ID)
	if err != nil || !removed {
		t.Fatalf("RemoveQueueItem failed: removed=%v err=%v", removed, err)
	}
}
