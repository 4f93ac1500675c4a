package prowlarr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Book-oriented Torznab categories: 7000 is Books, 3030 is Audio/Audiobook.
const (
	categoryBooks      = 7000
	categoryAudiobooks = 3030
)

// Release represents a single Prowlarr search match.
type Release struct {
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Indexer     string    `json:"indexer"`
	IndexerID   int64     `json:"indexerId"`
	Size        int64     `json:"size"`
	Seeders     int       `json:"seeders"`
	Protocol    string    `json:"protocol"`
	DownloadURL string    `json:"downloadUrl"`
	PublishDate time.Time `json:"publishDate"`
}

// Searcher defines the Prowlarr operations used by search and the worker.
type Searcher interface {
	Search(ctx context.Context, query, contentType string) ([]Release, error)
	Grab(ctx context.Context, release Release) error
	Ping(ctx context.Context) error
}

// Client provides access to the Prowlarr API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Prowlarr client.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("prowlarr url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("prowlarr api key required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func categoriesFor(contentType string) []int {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "audiobook":
		return []int{categoryAudiobooks}
	default:
		return []int{categoryBooks}
	}
}

// Search queries all configured indexers for releases matching the query.
func (c *Client) Search(ctx context.Context, query, contentType string) ([]Release, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/api/v1/search")
	if err != nil {
		return nil, fmt.Errorf("parse prowlarr url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", "search")
	for _, category := range categoriesFor(contentType) {
		params.Add("categories", strconv.Itoa(category))
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prowlarr search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("decode prowlarr response: %w", err)
	}
	return releases, nil
}

// Grab asks Prowlarr to send a release to its configured download client.
func (c *Client) Grab(ctx context.Context, release Release) error {
	if release.GUID == "" {
		return errors.New("release guid must not be empty")
	}
	payload, err := json.Marshal(map[string]any{
		"guid":      release.GUID,
		"indexerId": release.IndexerID,
	})
	if err != nil {
		return fmt.Errorf("marshal grab payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/search", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("prowlarr grab returned %d (latency=%v)", resp.StatusCode, latency)
	}
	return nil
}

// Ping checks that the Prowlarr instance is reachable and the key is valid.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("prowlarr health returned %d", resp.StatusCode)
	}
	return nil
}
