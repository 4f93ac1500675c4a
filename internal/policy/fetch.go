package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultFetchTimeout = 10 * time.Second

// NewStaticFetcher returns a fetcher that always yields the given policy.
// It backs deployments that configure the policy inline instead of through
// a remote endpoint.
func NewStaticFetcher(p *Policy) Fetcher {
	return func(context.Context) (*Policy, error) {
		if p == nil {
			return nil, nil
		}
		cp := *p
		return &cp, nil
	}
}

// NewHTTPFetcher returns a fetcher that retrieves the policy document from
// the given endpoint as JSON.
func NewHTTPFetcher(endpoint string, client *http.Client) (Fetcher, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("policy fetcher requires an endpoint")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}

	return func(ctx context.Context) (*Policy, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, trimmed, nil)
		if err != nil {
			return nil, fmt.Errorf("build policy request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		started := time.Now()
		resp, err := client.Do(req)
		latency := time.Since(started)
		if err != nil {
			return nil, fmt.Errorf("fetch policy after %s: %w", latency.Round(time.Millisecond), err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch policy: unexpected status %d after %s", resp.StatusCode, latency.Round(time.Millisecond))
		}

		var pol Policy
		if err := json.NewDecoder(resp.Body).Decode(&pol); err != nil {
			return nil, fmt.Errorf("decode policy document: %w", err)
		}
		return &pol, nil
	}, nil
}
