// Package search is the thin client for the rate-limited external search
// dependency. It is reachable only through the quota gate: callers must
// check the quota tracker before issuing a query.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Item is one search result
type Item struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client queries a Custom Search-style JSON API
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	engineID   string
	results    int
	userAgent  string
}

// New creates a search client. Returns nil when no API key is configured;
// callers treat a nil client as "verification unavailable".
func New(apiKey, engineID, baseURL string, results int, timeout time.Duration, userAgent string) *Client {
	if apiKey == "" {
		return nil
	}
	if results <= 0 {
		results = 5
	}
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/customsearch/v1"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		engineID:   engineID,
		results:    results,
		userAgent:  userAgent,
	}
}

type searchResponse struct {
	Items []Item `json:"items"`
}

// Search issues one query and returns the result items. One call here is one
// unit of quota; the caller has already consumed it.
func (c *Client) Search(ctx context.Context, query string) ([]Item, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(c.results))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1_000_000))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parsed.Items, nil
}
