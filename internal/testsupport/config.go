package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"shelfmark/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	for _, dir := range []string{cfgVal.Paths.DownloadDir, cfgVal.Paths.LibraryDir, cfgVal.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create test dir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIToken sets the API bearer token on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithRequestsEnabled toggles the request workflow on the test config.
func WithRequestsEnabled(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Policy.RequestsEnabled = enabled
	}
}

// WithProwlarr points the test config at a Prowlarr endpoint.
func WithProwlarr(url, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Prowlarr.Enabled = true
		b.cfg.Prowlarr.URL = url
		b.cfg.Prowlarr.APIKey = apiKey
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DownloadDir)
}
