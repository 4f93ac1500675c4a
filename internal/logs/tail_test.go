package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelfmark/internal/logs"
)

func writeLogFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shelfmark.log")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}
	return path
}

func TestTailReturnsLastLines(t *testing.T) {
	path := writeLogFile(t, "one\ntwo\nthree\nfour\n")

	res, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(res.Lines) != 2 || res.Lines[0] != "three" || res.Lines[1] != "four" {
		t.Fatalf("unexpected lines: %v", res.Lines)
	}
	if res.Offset == 0 {
		t.Fatal("expected non-zero resume offset")
	}
}

func TestTailResumesFromOffset(t *testing.T) {
	path := writeLogFile(t, "alpha\n")

	first, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString("beta\ngamma\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	second, err := logs.Tail(context.Background(), path, logs.Options{Offset: first.Offset})
	if err != nil {
		t.Fatalf("Tail from offset: %v", err)
	}
	if len(second.Lines) != 2 || second.Lines[0] != "beta" || second.Lines[1] != "gamma" {
		t.Fatalf("unexpected lines: %v", second.Lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")

	res, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(res.Lines) != 0 || res.Offset != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestTailOffsetBeyondFileClamps(t *testing.T) {
	path := writeLogFile(t, "short\n")

	res, err := logs.Tail(context.Background(), path, logs.Options{Offset: 1 << 20})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(res.Lines) != 0 {
		t.Fatalf("expected no lines past EOF, got %v", res.Lines)
	}
}

func TestTailFollowWaitsForLines(t *testing.T) {
	path := writeLogFile(t, "")

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(400 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		defer f.Close()
		_, _ = f.WriteString("late\n")
	}()

	res, err := logs.Tail(context.Background(), path, logs.Options{
		Offset: 0,
		Follow: true,
		Wait:   3 * time.Second,
	})
	<-done
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(res.Lines) != 1 || res.Lines[0] != "late" {
		t.Fatalf("unexpected lines: %v", res.Lines)
	}
}
