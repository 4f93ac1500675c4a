package policy

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"shelfmark/internal/logging"
)

// Fetcher retrieves the current policy document from its authoritative
// source, typically an HTTP endpoint.
type Fetcher func(ctx context.Context) (*Policy, error)

// RefreshContext carries the caller's access context for a refresh.
type RefreshContext struct {
	Enabled bool
	IsAdmin bool
	Force   bool
}

// call is a single in-flight fetch whose result is shared by every caller
// that joined it.
type call struct {
	done   chan struct{}
	policy *Policy
	err    error
}

// Cache is a time-bounded, de-duplicating cache in front of a policy fetch.
//
// At most one non-forced fetch is in flight at a time; concurrent non-forced
// callers join it. A forced refresh always issues its own fetch and its
// result becomes the cached value. Fetch errors are never cached.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	policy    *Policy
	fetchedAt time.Time
	inflight  *call
	// started counts fetches as they begin; stored remembers which fetch
	// produced the cached value so a slow stale fetch cannot clobber a
	// newer one.
	started uint64
	stored  uint64
}

// NewCache creates a policy cache. TTL values of zero or less disable reuse,
// forcing a fetch on every refresh.
func NewCache(fetcher Fetcher, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if fetcher == nil {
		return nil, errors.New("policy cache requires a fetcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logging.NewComponentLogger(logger, "policy-cache"),
		now:     time.Now,
	}, nil
}

// Refresh returns the current policy for the caller's context.
//
// Disabled or admin contexts clear the cached state and return nil without
// fetching. Otherwise a fresh cached value is returned directly; a non-forced
// caller joins any fetch already in flight; a forced caller always triggers
// its own fetch. Errors from the fetcher propagate to every caller of the
// fetch that failed and leave nothing cached.
func (c *Cache) Refresh(ctx context.Context, rc RefreshContext) (*Policy, error) {
	c.mu.Lock()

	if !rc.Enabled || rc.IsAdmin {
		c.policy = nil
		c.fetchedAt = time.Time{}
		c.mu.Unlock()
		return nil, nil
	}

	if !rc.Force {
		if c.policy != nil && c.now().Sub(c.fetchedAt) < c.ttl {
			cached := c.policy
			c.mu.Unlock()
			return cached, nil
		}
		if c.inflight != nil {
			waiting := c.inflight
			c.mu.Unlock()
			return awaitCall(ctx, waiting)
		}
	}

	current := &call{done: make(chan struct{})}
	c.started++
	generation := c.started
	if !rc.Force {
		c.inflight = current
	}
	c.mu.Unlock()

	policy, err := c.fetcher(ctx)

	c.mu.Lock()
	if c.inflight == current {
		c.inflight = nil
	}
	if err == nil && generation > c.stored {
		c.policy = policy
		c.fetchedAt = c.now()
		c.stored = generation
	}
	c.mu.Unlock()

	current.policy = policy
	current.err = err
	close(current.done)

	if err != nil {
		c.logger.Debug("policy fetch failed", logging.Error(err))
		return nil, err
	}
	c.logger.Debug("policy refreshed",
		logging.Bool("forced", rc.Force),
		logging.Bool("requests_enabled", policy != nil && policy.RequestsEnabled))
	return policy, nil
}

// Invalidate drops the cached policy so the next refresh fetches again.
// Outstanding fetches are unaffected and run to completion.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.policy = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// Cached returns the cached policy without fetching, if one is present and
// within its TTL.
func (c *Cache) Cached() (*Policy, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.policy == nil || c.now().Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return c.policy, true
}

func awaitCall(ctx context.Context, waiting *call) (*Policy, error) {
	select {
	case <-waiting.done:
		return waiting.policy, waiting.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
