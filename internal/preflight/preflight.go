package preflight

import (
	"context"
	"strings"

	"shelfmark/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir),
	}
	if cfg.Paths.LibraryDir != "" {
		results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	}
	if cfg.Prowlarr.Enabled {
		results = append(results, CheckProwlarr(ctx, cfg.Prowlarr.URL, cfg.Prowlarr.APIKey))
	}
	if strings.TrimSpace(cfg.Policy.Endpoint) != "" {
		results = append(results, CheckPolicyEndpoint(ctx, cfg.Policy.Endpoint))
	}
	return results
}
