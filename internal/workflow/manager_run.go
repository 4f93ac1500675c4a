package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shelfmark/internal/logging"
	"shelfmark/internal/queue"
	"shelfmark/internal/services"
)

func (m *Manager) runWorker(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, err := m.claimNext(ctx)
		if err != nil {
			m.handleClaimError(ctx, err)
			continue
		}
		if item == nil {
			m.waitForItemOrShutdown(ctx)
			continue
		}

		if err := m.processItem(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

// claimNext atomically moves the oldest pending item to searching so two
// workers never pick up the same download.
func (m *Manager) claimNext(ctx context.Context) (*queue.Item, error) {
	item, err := m.store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil || item == nil {
		return nil, err
	}
	item.Status = queue.StatusSearching
	item.SetProgress("Searching for releases", 0)
	if err := m.store.Update(ctx, item); err != nil {
		return nil, err
	}
	m.setLastItem(item)
	return item, nil
}

func (m *Manager) handleClaimError(ctx context.Context, err error) {
	m.setLastError(err)
	m.logger.Error("failed to fetch next queue item",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(m.retryInterval):
	}
}

func (m *Manager) waitForItemOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) processItem(ctx context.Context, item *queue.Item) error {
	itemCtx := services.WithItemID(ctx, item.ID)
	logger := m.logger.With(logging.Int64(logging.FieldItemID, item.ID))

	if err := m.notifier.NotifyDownloadStarted(itemCtx, item.Title); err != nil {
		logger.Warn("start notification failed", logging.Error(err))
	}

	finalPath, err := m.runStages(itemCtx, logger, item)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.releaseForShutdown(item)
			return err
		}
		m.failItem(itemCtx, logger, item, err)
		if item.Status == queue.StatusPending {
			// Back off before the retryable item is claimed again.
			select {
			case <-ctx.Done():
			case <-time.After(m.retryInterval):
			}
		}
		return err
	}

	item.Status = queue.StatusCompleted
	item.FilePath = finalPath
	item.SetProgress("Completed", 100)
	item.ErrorMessage = ""
	if err := m.store.Update(itemCtx, item); err != nil {
		logger.Error("failed to persist completion", logging.Error(err))
		return err
	}
	m.setLastItem(item)

	logger.Info("download completed", logging.String("file", finalPath))
	if err := m.notifier.NotifyDownloadCompleted(itemCtx, item.Title, finalPath); err != nil {
		logger.Warn("completion notification failed", logging.Error(err))
	}
	if m.fulfiller != nil && item.RequestID != 0 {
		if err := m.fulfiller.MarkFulfilled(itemCtx, item.ID); err != nil {
			logger.Warn("request fulfillment failed", logging.Error(err))
		}
	}
	return nil
}

func (m *Manager) runStages(ctx context.Context, logger *slog.Logger, item *queue.Item) (string, error) {
	release, err := m.downloader.SearchRelease(ctx, item)
	if err != nil {
		return "", err
	}
	logger.Info("release selected",
		logging.String("release", release.Title),
		logging.Int("seeders", release.Seeders))

	item.Status = queue.StatusGrabbing
	item.SetProgress("Grabbing release", 0)
	if err := m.store.Update(ctx, item); err != nil {
		return "", err
	}

	item.Status = queue.StatusDownloading
	item.SetProgress("Downloading release", 0)
	if err := m.store.Update(ctx, item); err != nil {
		return "", err
	}

	progress := func(percent float64, message string) {
		item.SetProgress(message, percent)
		if err := m.store.Update(ctx, item); err != nil {
			m.setLastError(err)
		}
	}
	return m.downloader.FetchRelease(ctx, item, release, progress)
}

func (m *Manager) failItem(ctx context.Context, logger *slog.Logger, item *queue.Item, cause error) {
	if services.Retryable(cause) {
		item.Status = queue.StatusPending
		item.ErrorMessage = cause.Error()
		item.SetProgress("Waiting to retry", 0)
	} else {
		item.SetFailed(cause.Error())
	}
	if err := m.store.Update(ctx, item); err != nil {
		logger.Error("failed to persist failure", logging.Error(err))
	}
	m.setLastError(cause)
	m.setLastItem(item)

	logger.Error("download failed",
		logging.Error(cause),
		logging.String(logging.FieldEventType, "download_failed"))
	if item.Status == queue.StatusFailed {
		if err := m.notifier.NotifyDownloadFailed(ctx, item.Title, cause.Error()); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
		}
	}
}

// releaseForShutdown puts an interrupted item back to pending so the next
// daemon start picks it up again.
func (m *Manager) releaseForShutdown(item *queue.Item) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	item.Status = queue.StatusPending
	item.SetProgress("Interrupted by shutdown", 0)
	if err := m.store.Update(ctx, item); err != nil {
		m.logger.Warn("failed to release item on shutdown", logging.Error(err))
	}
}
