package policy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func countingFetcher(calls *atomic.Int64, p *Policy) Fetcher {
	return func(ctx context.Context) (*Policy, error) {
		calls.Add(1)
		return p, nil
	}
}

func enabledContext() RefreshContext {
	return RefreshContext{Enabled: true}
}

func TestCacheReturnsCachedWithinTTL(t *testing.T) {
	var calls atomic.Int64
	cache, err := NewCache(countingFetcher(&calls, samplePolicy()), time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	first, err := cache.Refresh(context.Background(), enabledContext())
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	second, err := cache.Refresh(context.Background(), enabledContext())
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly one fetch, got %d", calls.Load())
	}
	if first != second {
		t.Error("both refreshes should return the cached snapshot")
	}
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	var calls atomic.Int64
	cache, err := NewCache(countingFetcher(&calls, samplePolicy()), time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	current := time.Now()
	cache.now = func() time.Time { return current }

	if _, err := cache.Refresh(context.Background(), enabledContext()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	current = current.Add(2 * time.Minute)
	if _, err := cache.Refresh(context.Background(), enabledContext()); err != nil {
		t.Fatalf("refresh after expiry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected a second fetch after TTL expiry, got %d", calls.Load())
	}
}

func TestCacheDisabledClearsState(t *testing.T) {
	var calls atomic.Int64
	cache, err := NewCache(countingFetcher(&calls, samplePolicy()), time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	if _, err := cache.Refresh(context.Background(), enabledContext()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got, err := cache.Refresh(context.Background(), RefreshContext{Enabled: false})
	if err != nil {
		t.Fatalf("disabled refresh: %v", err)
	}
	if got != nil {
		t.Error("disabled refresh should return nil")
	}
	if calls.Load() != 1 {
		t.Errorf("disabled refresh must not fetch, got %d fetches", calls.Load())
	}
	if _, ok := cache.Cached(); ok {
		t.Error("disabled refresh should clear the cached policy")
	}
}

func TestCacheAdminClearsState(t *testing.T) {
	var calls atomic.Int64
	cache, err := NewCache(countingFetcher(&calls, samplePolicy()), time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	if _, err := cache.Refresh(context.Background(), enabledContext()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got, err := cache.Refresh(context.Background(), RefreshContext{Enabled: true, IsAdmin: true})
	if err != nil {
		t.Fatalf("admin refresh: %v", err)
	}
	if got != nil {
		t.Error("admin refresh should return nil")
	}
	if _, ok := cache.Cached(); ok {
		t.Error("admin refresh should clear the cached policy")
	}
}

func TestCacheDeduplicatesConcurrentRefreshes(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	fetcher := func(ctx context.Context) (*Policy, error) {
		calls.Add(1)
		<-release
		return samplePolicy(), nil
	}
	cache, err := NewCache(fetcher, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	const waiters = 4
	var wg sync.WaitGroup
	results := make([]*Policy, waiters)
	errd := make([]error, waiters)
	started := make(chan struct{}, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			results[i], errd[i] = cache.Refresh(context.Background(), enabledContext())
		}(i)
	}
	for i := 0; i < waiters; i++ {
		<-started
	}
	// Give joiners time to observe the in-flight call before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("concurrent non-forced refreshes should share one fetch, got %d", calls.Load())
	}
	for i := 0; i < waiters; i++ {
		if errd[i] != nil {
			t.Errorf("waiter %d error: %v", i, errd[i])
		}
		if results[i] == nil {
			t.Errorf("waiter %d received nil policy", i)
		}
	}
}

func TestCacheForceAlwaysFetches(t *testing.T) {
	var calls atomic.Int64
	cache, err := NewCache(countingFetcher(&calls, samplePolicy()), time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	if _, err := cache.Refresh(context.Background(), enabledContext()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := cache.Refresh(context.Background(), RefreshContext{Enabled: true, Force: true}); err != nil {
		t.Fatalf("forced refresh: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("forced refresh must fetch even within TTL, got %d fetches", calls.Load())
	}
}

func TestCacheForceFetchesAlongsideInflight(t *testing.T) {
	var calls atomic.Int64
	releaseFirst := make(chan struct{})
	slow := samplePolicy()
	fast := samplePolicy()
	fast.AllowNotes = false

	fetcher := func(ctx context.Context) (*Policy, error) {
		n := calls.Add(1)
		if n == 1 {
			<-releaseFirst
			return slow, nil
		}
		return fast, nil
	}
	cache, err := NewCache(fetcher, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	firstDone := make(chan struct{})
	var firstResult *Policy
	go func() {
		defer close(firstDone)
		firstResult, _ = cache.Refresh(context.Background(), enabledContext())
	}()

	// Wait for the non-forced fetch to be in flight.
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	forced, err := cache.Refresh(context.Background(), RefreshContext{Enabled: true, Force: true})
	if err != nil {
		t.Fatalf("forced refresh: %v", err)
	}
	if forced != fast {
		t.Error("forced caller should receive the result of its own fetch")
	}
	if calls.Load() != 2 {
		t.Errorf("force should start a second fetch, got %d", calls.Load())
	}

	close(releaseFirst)
	<-firstDone
	if firstResult != slow {
		t.Error("non-forced caller should receive the result of the fetch it triggered")
	}

	// The stale first fetch must not clobber the newer forced result.
	cached, ok := cache.Cached()
	if !ok {
		t.Fatal("expected a cached policy")
	}
	if cached != fast {
		t.Error("cached value should be the forced fetch's result")
	}
}

func TestCacheErrorPropagatesAndRetries(t *testing.T) {
	var calls atomic.Int64
	boom := errors.New("policy endpoint unreachable")
	fetcher := func(ctx context.Context) (*Policy, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return samplePolicy(), nil
	}
	cache, err := NewCache(fetcher, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	if _, err := cache.Refresh(context.Background(), enabledContext()); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if _, ok := cache.Cached(); ok {
		t.Error("errors must not be cached")
	}

	got, err := cache.Refresh(context.Background(), enabledContext())
	if err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if got == nil {
		t.Error("retry should return the fetched policy")
	}
	if calls.Load() != 2 {
		t.Errorf("expected retry to fetch again, got %d fetches", calls.Load())
	}
}

func TestCacheInvalidateForcesRefetch(t *testing.T) {
	var calls atomic.Int64
	cache, err := NewCache(countingFetcher(&calls, samplePolicy()), time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	if _, err := cache.Refresh(context.Background(), enabledContext()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	cache.Invalidate()
	if _, err := cache.Refresh(context.Background(), enabledContext()); err != nil {
		t.Fatalf("refresh after invalidate: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected refetch after invalidate, got %d fetches", calls.Load())
	}
}

func TestCacheWaiterRespectsContext(t *testing.T) {
	release := make(chan struct{})
	fetcher := func(ctx context.Context) (*Policy, error) {
		<-release
		return samplePolicy(), nil
	}
	cache, err := NewCache(fetcher, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	go cache.Refresh(context.Background(), enabledContext())
	// Wait for the fetch to be in flight before joining it.
	deadline := time.Now().Add(time.Second)
	for {
		cache.mu.Lock()
		inflight := cache.inflight != nil
		cache.mu.Unlock()
		if inflight {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("fetch never became in-flight")
		}
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cache.Refresh(ctx, enabledContext()); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled waiter should return context error, got %v", err)
	}
	close(release)
}

func TestNewCacheRequiresFetcher(t *testing.T) {
	if _, err := NewCache(nil, time.Minute, nil); err == nil {
		t.Fatal("expected error for nil fetcher")
	}
}
