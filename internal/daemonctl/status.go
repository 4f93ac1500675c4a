package daemonctl

import (
	"context"
	"errors"
	"strings"
	"time"

	"shelfmark/internal/config"
	"shelfmark/internal/ipc"
	"shelfmark/internal/preflight"
	"shelfmark/internal/queue"
)

// StatusLine is one labeled row in the CLI status output.
type StatusLine struct {
	Label    string
	Severity string
	Detail   string
}

// Snapshot combines live daemon status with config-derived checks so the
// status command renders useful output whether or not the daemon is running.
type Snapshot struct {
	Status       ipc.StatusResponse
	SystemChecks []StatusLine
	ServicePaths []StatusLine
}

// BuildStatusSnapshot collects daemon status and applies offline fallbacks
// for queue stats when the daemon is unreachable.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snapshot := &Snapshot{}

	client, err := ipc.Dial(socketPath)
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			snapshot.Status = *resp
		}
	}

	if !snapshot.Status.Running && len(snapshot.Status.QueueStats) == 0 {
		queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		store, openErr := queue.Open(cfg)
		if openErr == nil {
			stats, statsErr := store.Stats(queryCtx)
			_ = store.Close()
			if statsErr == nil {
				queueStats := make(map[string]int, len(stats))
				for status, count := range stats {
					queueStats[string(status)] = count
				}
				snapshot.Status.QueueStats = queueStats
			}
		}
	}

	snapshot.SystemChecks = BuildSystemChecks(ctx, cfg, snapshot.Status.Running)
	snapshot.ServicePaths = BuildPathChecks(cfg)
	return snapshot, nil
}

// BuildSystemChecks resolves status lines combining runtime state and config checks.
func BuildSystemChecks(ctx context.Context, cfg *config.Config, daemonRunning bool) []StatusLine {
	lines := make([]StatusLine, 0, 4)
	if daemonRunning {
		lines = append(lines, StatusLine{Label: "Shelfmark", Severity: "ok", Detail: "Running"})
	} else {
		lines = append(lines, StatusLine{Label: "Shelfmark", Severity: "warn", Detail: "Not running (run `shelfmark start`)"})
	}

	lines = append(lines, prowlarrStatusLine(ctx, cfg))
	lines = append(lines, policyStatusLine(ctx, cfg))

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		lines = append(lines, StatusLine{Label: "Notifications", Severity: "ok", Detail: "Configured"})
	} else {
		lines = append(lines, StatusLine{Label: "Notifications", Severity: "warn", Detail: "Not configured"})
	}

	return lines
}

func prowlarrStatusLine(ctx context.Context, cfg *config.Config) StatusLine {
	if !cfg.Prowlarr.Enabled {
		return StatusLine{Label: "Prowlarr", Severity: "info", Detail: "Disabled"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	result := preflight.CheckProwlarr(checkCtx, cfg.Prowlarr.URL, cfg.Prowlarr.APIKey)
	if result.Passed {
		return StatusLine{Label: "Prowlarr", Severity: "ok", Detail: result.Detail}
	}
	return StatusLine{Label: "Prowlarr", Severity: "warn", Detail: result.Detail}
}

func policyStatusLine(ctx context.Context, cfg *config.Config) StatusLine {
	endpoint := strings.TrimSpace(cfg.Policy.Endpoint)
	if endpoint == "" {
		return StatusLine{Label: "Policy", Severity: "info", Detail: "Using inline policy"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	result := preflight.CheckPolicyEndpoint(checkCtx, endpoint)
	if result.Passed {
		return StatusLine{Label: "Policy", Severity: "ok", Detail: result.Detail}
	}
	return StatusLine{Label: "Policy", Severity: "warn", Detail: result.Detail}
}

// BuildPathChecks resolves configured directory readiness.
func BuildPathChecks(cfg *config.Config) []StatusLine {
	dirs := []struct {
		label string
		path  string
	}{
		{label: "Downloads", path: cfg.Paths.DownloadDir},
		{label: "Library", path: cfg.Paths.LibraryDir},
	}

	lines := make([]StatusLine, 0, len(dirs))
	for _, dir := range dirs {
		if strings.TrimSpace(dir.path) == "" {
			lines = append(lines, StatusLine{Label: dir.label, Severity: "info", Detail: "Not configured"})
			continue
		}
		result := preflight.CheckDirectoryAccess(dir.label, dir.path)
		severity := "error"
		if result.Passed {
			severity = "ok"
		}
		lines = append(lines, StatusLine{Label: dir.label, Severity: severity, Detail: result.Detail})
	}
	return lines
}
