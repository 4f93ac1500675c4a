package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("config file should not exist")
	}
	if cfg.Policy.TTLSeconds != defaultPolicyTTLSeconds {
		t.Errorf("TTLSeconds = %d, want %d", cfg.Policy.TTLSeconds, defaultPolicyTTLSeconds)
	}
	if !cfg.Policy.RequestsEnabled {
		t.Error("requests should be enabled by default")
	}
	if cfg.Paths.APIBind != defaultAPIBind {
		t.Errorf("APIBind = %q, want %q", cfg.Paths.APIBind, defaultAPIBind)
	}
}

func TestLoadParsesAndNormalizesPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
download_dir = "` + dir + `/downloads"
log_dir = "` + dir + `/logs"

[policy]
ttl_seconds = 30

[policy.defaults]
Ebook = "Download"
audiobook = "request_release"

[[policy.rules]]
source = "*"
content_type = "EBOOK"
mode = "request_book"

[[policy.source_modes]]
source = "Prowlarr"
supported_content_types = ["ebook"]
[policy.source_modes.modes]
ebook = "download"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatal("expected existing config file")
	}
	if cfg.Policy.TTLSeconds != 30 {
		t.Errorf("TTLSeconds = %d, want 30", cfg.Policy.TTLSeconds)
	}
	if cfg.Policy.Defaults["ebook"] != "download" {
		t.Errorf("defaults should be lowercase-normalized, got %v", cfg.Policy.Defaults)
	}
	if cfg.Policy.Rules[0].ContentType != "ebook" {
		t.Errorf("rule content type should be normalized, got %q", cfg.Policy.Rules[0].ContentType)
	}
	if cfg.Policy.SourceModes[0].Source != "prowlarr" {
		t.Errorf("source mode source should be normalized, got %q", cfg.Policy.SourceModes[0].Source)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[policy.defaults]
ebook = "maybe"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("expected unknown mode error, got %v", err)
	}
}

func TestValidateProwlarrRequiresCredentials(t *testing.T) {
	cfg := Default()
	cfg.Prowlarr.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for enabled prowlarr without url")
	}
	cfg.Prowlarr.URL = "http://localhost:9696"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for enabled prowlarr without api key")
	}
	cfg.Prowlarr.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("sample config should exist")
	}
	if cfg.Policy.Defaults["ebook"] != "download" {
		t.Errorf("sample defaults unexpected: %v", cfg.Policy.Defaults)
	}
}
