// Package daemonrun wires configuration, storage, services, and transports
// into the long-running daemon process.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"shelfmark/internal/config"
	"shelfmark/internal/daemon"
	"shelfmark/internal/ipc"
	"shelfmark/internal/logging"
	"shelfmark/internal/notifications"
	"shelfmark/internal/policy"
	"shelfmark/internal/preflight"
	"shelfmark/internal/queue"
	"shelfmark/internal/requests"
	"shelfmark/internal/search"
	"shelfmark/internal/services/openlibrary"
	"shelfmark/internal/services/prowlarr"
	"shelfmark/internal/users"
	"shelfmark/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the shelfmark daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("shelfmark-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:            opts.LogLevel,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update shelfmark.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "shelfmark-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "shelfmark.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logPreflight(signalCtx, logger, cfg)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	if reset, err := store.ResetStuckProcessing(signalCtx); err != nil {
		logger.Warn("reset stuck downloads failed", logging.Error(err))
	} else if reset > 0 {
		logger.Info("reset stuck downloads",
			logging.String(logging.FieldEventType, "queue_reset_stuck"),
			logging.Int64("updated_count", reset))
	}

	notifier := notifications.NewService(cfg)

	policyCache, err := buildPolicyCache(cfg, logger)
	if err != nil {
		return fmt.Errorf("init policy cache: %w", err)
	}

	searchSvc, downloader, err := buildSearch(cfg, logger)
	if err != nil {
		return fmt.Errorf("init search: %w", err)
	}

	requestSvc := requests.NewService(store, policyCache, notifier, cfg.Policy.RequestsEnabled, logger)
	userSvc := users.NewService(store, logger)
	manager := workflow.NewManager(cfg, store, downloader, notifier, requestSvc, logger)

	d, err := daemon.New(cfg, daemon.Services{
		Store:    store,
		Workflow: manager,
		Policies: policyCache,
		Search:   searchSvc,
		Requests: requestSvc,
		Users:    userSvc,
	}, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := filepath.Join(cfg.Paths.LogDir, "shelfmark.sock")
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and queue database access"),
			logging.String(logging.FieldImpact, "daemon may not process downloads"),
		)
	}

	<-signalCtx.Done()
	logger.Info("shelfmark daemon shutting down")
	return nil
}

// buildPolicyCache wires the policy cache onto either the remote endpoint or
// the inline policy from configuration.
func buildPolicyCache(cfg *config.Config, logger *slog.Logger) (*policy.Cache, error) {
	var fetcher policy.Fetcher
	if endpoint := strings.TrimSpace(cfg.Policy.Endpoint); endpoint != "" {
		httpFetcher, err := policy.NewHTTPFetcher(endpoint, nil)
		if err != nil {
			return nil, err
		}
		fetcher = httpFetcher
	} else {
		fetcher = policy.NewStaticFetcher(staticPolicy(cfg))
	}
	ttl := time.Duration(cfg.Policy.TTLSeconds) * time.Second
	return policy.NewCache(fetcher, ttl, logger)
}

// staticPolicy converts the inline configuration sections into a policy
// document.
func staticPolicy(cfg *config.Config) *policy.Policy {
	pol := &policy.Policy{
		RequestsEnabled: cfg.Policy.RequestsEnabled,
		AllowNotes:      cfg.Policy.AllowNotes,
	}
	if len(cfg.Policy.Defaults) > 0 {
		pol.Defaults = make(map[string]policy.Mode, len(cfg.Policy.Defaults))
		for contentType, mode := range cfg.Policy.Defaults {
			pol.Defaults[contentType] = policy.Mode(mode)
		}
	}
	for _, rule := range cfg.Policy.Rules {
		pol.Rules = append(pol.Rules, policy.Rule{
			Source:      rule.Source,
			ContentType: rule.ContentType,
			Mode:        policy.Mode(rule.Mode),
		})
	}
	for _, sm := range cfg.Policy.SourceModes {
		modes := make(map[string]policy.Mode, len(sm.Modes))
		for contentType, mode := range sm.Modes {
			modes[contentType] = policy.Mode(mode)
		}
		pol.SourceModes = append(pol.SourceModes, policy.SourceMode{
			Source:                sm.Source,
			SupportedContentTypes: sm.SupportedContentTypes,
			Modes:                 modes,
		})
	}
	return pol
}

// buildSearch assembles the aggregated search service and the workflow
// downloader from the configured backends.
func buildSearch(cfg *config.Config, logger *slog.Logger) (*search.Service, workflow.Downloader, error) {
	var sources []search.Source
	var downloader workflow.Downloader

	if cfg.Prowlarr.Enabled {
		client, err := prowlarr.New(cfg.Prowlarr.URL, cfg.Prowlarr.APIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("prowlarr client: %w", err)
		}
		sources = append(sources, search.ProwlarrSource{Client: client})
		downloader = workflow.NewProwlarrDownloader(client, cfg.Paths.DownloadDir, cfg.Paths.LibraryDir)
	}

	if baseURL := strings.TrimSpace(cfg.OpenLibrary.BaseURL); baseURL != "" {
		client, err := openlibrary.New(baseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("openlibrary client: %w", err)
		}
		sources = append(sources, search.OpenLibrarySource{Client: client})
	}

	return search.NewService(logger, sources...), downloader, nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		logger.Warn("preflight check failed",
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "fix the reported path or service before queueing downloads"))
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "shelfmark.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
