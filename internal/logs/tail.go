// Package logs reads back the daemon log file for the CLI tail command.
package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	scanInitialBuffer = 64 * 1024
	scanMaxLine       = 1024 * 1024
	pollInterval      = 250 * time.Millisecond
)

// Options controls a single Tail call. A negative Offset asks for the last
// Limit lines of the file; a non-negative Offset resumes from that byte.
type Options struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// Result carries the lines read and the offset to resume from.
type Result struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from the log file at path. When Follow is set and no new
// lines are available it polls until Wait elapses or the context is canceled.
// A missing file is not an error; the result simply carries no lines.
func Tail(ctx context.Context, path string, opts Options) (Result, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Result{}, nil
	}
	if err != nil {
		return Result{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return Result{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	if opts.Wait < 0 {
		opts.Wait = 0
	}

	var res Result
	if opts.Offset < 0 {
		res, err = tailEnd(path, opts.Limit)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			offset = info.Size()
		}
		res, err = readFrom(path, offset)
	}
	if err != nil {
		return res, err
	}
	if opts.Follow && opts.Wait > 0 && len(res.Lines) == 0 {
		return pollFrom(ctx, path, res.Offset, opts.Wait)
	}
	return res, nil
}

// tailEnd returns up to limit trailing lines and the end-of-file offset.
func tailEnd(path string, limit int) (Result, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return Result{}, fmt.Errorf("seek log file: %w", err)
		}
		return Result{Offset: end}, nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, scanInitialBuffer), scanMaxLine)

	ring := make([]string, limit)
	total := 0
	for scanner.Scan() {
		ring[total%limit] = scanner.Text()
		total++
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return Result{}, fmt.Errorf("seek log file: %w", err)
	}

	count := total
	if count > limit {
		count = limit
	}
	lines := make([]string, count)
	for i := 0; i < count; i++ {
		lines[i] = ring[(total-count+i)%limit]
	}
	return Result{Lines: lines, Offset: end}, nil
}

// readFrom returns all complete lines starting at offset.
func readFrom(path string, offset int64) (Result, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Result{}, nil
	}
	if err != nil {
		return Result{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Result{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, scanInitialBuffer), scanMaxLine)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Result{Offset: offset}, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return Result{Offset: offset}, fmt.Errorf("determine log offset: %w", err)
	}
	return Result{Lines: lines, Offset: end}, nil
}

// pollFrom re-reads from offset until lines appear, wait elapses, or the
// context is canceled.
func pollFrom(ctx context.Context, path string, offset int64, wait time.Duration) (Result, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		res, err := readFrom(path, offset)
		if err != nil {
			return Result{Offset: offset}, err
		}
		if len(res.Lines) > 0 || time.Now().After(deadline) {
			return res, nil
		}
		offset = res.Offset

		select {
		case <-ctx.Done():
			return Result{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
	}
}
