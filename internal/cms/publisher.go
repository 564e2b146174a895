// Package cms pushes refreshed articles back to the site's WordPress
// install over the REST API.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pagemend/pagemend/internal/model"
)

// Metadata carries publish options alongside the article body.
type Metadata struct {
	Slug   string
	Title  string
	Status string // draft, publish; empty uses the configured default
}

// Publisher writes posts to a WordPress site.
type Publisher struct {
	baseURL       string
	username      string
	appPassword   string
	defaultStatus string
	httpClient    *http.Client
	log           *slog.Logger
}

// New creates a WordPress publisher, or nil when no CMS is configured.
func New(cfg model.CMSConfig, log *slog.Logger) *Publisher {
	if cfg.BaseURL == "" {
		return nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	status := cfg.DefaultStatus
	if status == "" {
		status = "draft"
	}

	return &Publisher{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		username:      cfg.Username,
		appPassword:   cfg.AppPassword,
		defaultStatus: status,
		httpClient:    &http.Client{Timeout: timeout},
		log:           log,
	}
}

type wpPost struct {
	ID      int    `json:"id"`
	Slug    string `json:"slug"`
	Link    string `json:"link"`
	Status  string `json:"status"`
	Title   any    `json:"title,omitempty"`
	Content any    `json:"content,omitempty"`
}

type wpPostPayload struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Slug    string `json:"slug,omitempty"`
	Status  string `json:"status,omitempty"`
}

type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FindBySlug returns the post ID for a slug, or 0 when no post matches.
func (p *Publisher) FindBySlug(ctx context.Context, slug string) (int, error) {
	endpoint := fmt.Sprintf("%s/wp-json/wp/v2/posts?slug=%s&status=any", p.baseURL, url.QueryEscape(slug))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	p.authorize(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("lookup slug %s: %w", slug, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5_000_000))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, apiError(resp.StatusCode, body)
	}

	var posts []wpPost
	if err := json.Unmarshal(body, &posts); err != nil {
		return 0, fmt.Errorf("unmarshal posts: %w", err)
	}
	if len(posts) == 0 {
		return 0, nil
	}
	return posts[0].ID, nil
}

// Publish creates or updates a post. An existing post with the same slug
// is updated in place; otherwise a new post is created.
func (p *Publisher) Publish(ctx context.Context, content string, meta Metadata) error {
	status := meta.Status
	if status == "" {
		status = p.defaultStatus
	}

	payload := wpPostPayload{
		Title:   meta.Title,
		Content: content,
		Slug:    meta.Slug,
		Status:  status,
	}

	endpoint := p.baseURL + "/wp-json/wp/v2/posts"
	action := "create"
	if meta.Slug != "" {
		id, err := p.FindBySlug(ctx, meta.Slug)
		if err != nil {
			return fmt.Errorf("find existing post: %w", err)
		}
		if id != 0 {
			endpoint = fmt.Sprintf("%s/wp-json/wp/v2/posts/%d", p.baseURL, id)
			action = "update"
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s post: %w", action, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 5_000_000))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apiError(resp.StatusCode, respBody)
	}

	var post wpPost
	if err := json.Unmarshal(respBody, &post); err == nil {
		p.log.Info("post published",
			slog.String("action", action),
			slog.Int("id", post.ID),
			slog.String("slug", post.Slug),
			slog.String("status", post.Status))
	}
	return nil
}

func (p *Publisher) authorize(req *http.Request) {
	if p.username != "" {
		req.SetBasicAuth(p.username, p.appPassword)
	}
}

func apiError(status int, body []byte) error {
	var apiErr wpError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("wordpress API error (%d): %s", status, apiErr.Message)
	}
	return fmt.Errorf("wordpress API error (%d)", status)
}
