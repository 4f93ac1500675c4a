package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classify service failures for retry decisions.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap tags err with one of the sentinel markers and a stage/operation detail
// string. A nil marker defaults to ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinDetail(stage, operation, message)
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// Retryable reports whether a failed download should be retried. Validation,
// configuration, and not-found failures need operator attention first.
func Retryable(err error) bool {
	return !errors.Is(err, ErrValidation) &&
		!errors.Is(err, ErrConfiguration) &&
		!errors.Is(err, ErrNotFound)
}

func joinDetail(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "service failure"
	}
	return strings.Join(kept, ": ")
}
