package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RetentionTarget describes a directory and glob pattern of log files eligible for cleanup.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs removes log files older than retentionDays from the given targets.
// A retentionDays of zero or less disables cleanup.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) {
	if retentionDays <= 0 {
		return
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	for _, target := range targets {
		if target.Dir == "" || target.Pattern == "" {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(target.Dir, target.Pattern))
		if err != nil {
			logger.Warn("log cleanup glob failed",
				String("dir", target.Dir),
				String("pattern", target.Pattern),
				Error(err))
			continue
		}
		excluded := make(map[string]struct{}, len(target.Exclude))
		for _, path := range target.Exclude {
			excluded[path] = struct{}{}
		}
		removed := 0
		for _, path := range matches {
			if _, skip := excluded[path]; skip {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				logger.Warn("log cleanup remove failed", String("path", path), Error(err))
				continue
			}
			removed++
		}
		if removed > 0 {
			logger.Debug("removed expired logs",
				String("dir", target.Dir),
				Int("removed", removed),
				Int("retention_days", retentionDays))
		}
	}
}
