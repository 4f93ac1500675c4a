package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewWritesToFile(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "shelfmark.log")

	logger, err := New(Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("policy refreshed", String(FieldComponent, "policy"), Int("rules", 3))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "policy: policy refreshed") {
		t.Errorf("expected component-prefixed message, got %q", line)
	}
	if !strings.Contains(line, "rules=3") {
		t.Errorf("expected rules attribute, got %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	cases := map[string]string{
		"":        "INFO",
		"bogus":   "INFO",
		"debug":   "DEBUG",
		"warn":    "WARN",
		"error":   "ERROR",
		"  Info ": "INFO",
	}
	for input, want := range cases {
		if got := levelName(ParseLevel(input)); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestCleanupOldLogsRespectsExclusions(t *testing.T) {
	tmpDir := t.TempDir()
	old := filepath.Join(tmpDir, "shelfmark-old.log")
	keep := filepath.Join(tmpDir, "shelfmark-current.log")
	for _, path := range []string{old, keep} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(keep, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	CleanupOldLogs(NewNop(), 1, RetentionTarget{
		Dir:     tmpDir,
		Pattern: "shelfmark-*.log",
		Exclude: []string{keep},
	})

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired log should have been removed")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("excluded log should remain: %v", err)
	}
}
