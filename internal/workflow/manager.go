package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"shelfmark/internal/config"
	"shelfmark/internal/logging"
	"shelfmark/internal/notifications"
	"shelfmark/internal/queue"
)

// ProgressFunc reports transfer progress as a percentage and message.
type ProgressFunc func(percent float64, message string)

// Fulfiller is notified when a download linked to a request completes.
// Satisfied by *requests.Service.
type Fulfiller interface {
	MarkFulfilled(ctx context.Context, downloadID int64) error
}

// Manager coordinates queue processing for downloads.
type Manager struct {
	cfg        *config.Config
	store      *queue.Store
	downloader Downloader
	notifier   notifications.Service
	fulfiller  Fulfiller
	logger     *slog.Logger

	pollInterval  time.Duration
	retryInterval time.Duration
	maxActive     int

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *queue.Item
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, downloader Downloader, notifier notifications.Service, fulfiller Fulfiller, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	maxActive := cfg.Workflow.MaxActiveDownloads
	if maxActive <= 0 {
		maxActive = 1
	}
	return &Manager{
		cfg:           cfg,
		store:         store,
		downloader:    downloader,
		notifier:      notifier,
		fulfiller:     fulfiller,
		logger:        logging.NewComponentLogger(logger, "workflow"),
		pollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		maxActive:     maxActive,
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if m.downloader == nil {
		return errors.New("workflow downloader not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(m.maxActive)
	for i := 0; i < m.maxActive; i++ {
		go m.runWorker(runCtx)
	}
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the manager has active workers.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastError returns the most recent processing error, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// LastItem returns a copy of the most recently processed item.
func (m *Manager) LastItem() *queue.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastItem == nil {
		return nil
	}
	cp := *m.lastItem
	return &cp
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	if item == nil {
		m.lastItem = nil
	} else {
		cp := *item
		m.lastItem = &cp
	}
	m.mu.Unlock()
}
