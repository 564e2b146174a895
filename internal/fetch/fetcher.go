// Package fetch retrieves live page content for monitored targets. Network
// paths are an explicit ordered list of strategies tried in sequence with a
// per-attempt timeout, not recursive fallback control flow.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pagemend/pagemend/internal/model"
)

// ErrUnreachable reports that every fetch strategy failed for a URL.
var ErrUnreachable = errors.New("target unreachable through all strategies")

// Result contains fetched content and its metadata
type Result struct {
	Content      string
	LastModified time.Time
	FinalURL     string
	StatusCode   int
	Strategy     string
}

// strategy is one way of reaching a URL: a named client plus an optional
// URL rewrite.
type strategy struct {
	name    string
	client  *http.Client
	rewrite func(string) string
}

// Fetcher retrieves page content through an ordered strategy list
type Fetcher struct {
	strategies []strategy
	timeout    time.Duration
	probeTime  time.Duration
	userAgent  string
	maxBytes   int64
	log        *slog.Logger
}

// New creates a fetcher from the HTTP configuration. A configured proxy
// becomes a second strategy tried when the direct path fails.
func New(cfg model.HTTPConfig, log *slog.Logger) *Fetcher {
	f := &Fetcher{
		timeout:   cfg.Timeout,
		probeTime: cfg.ProbeTimeout,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		log:       log,
	}
	if f.timeout <= 0 {
		f.timeout = 15 * time.Second
	}
	if f.probeTime <= 0 {
		f.probeTime = 5 * time.Second
	}
	if f.maxBytes <= 0 {
		f.maxBytes = 2_000_000
	}

	f.strategies = append(f.strategies, strategy{
		name:   "direct",
		client: newClient(f.timeout, nil),
	})
	if cfg.HTTPProxy != "" || cfg.HTTPSProxy != "" {
		f.strategies = append(f.strategies, strategy{
			name:   "proxy",
			client: newClient(f.timeout, proxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy)),
		})
	}
	return f
}

func newClient(timeout time.Duration, proxy func(*http.Request) (*url.URL, error)) *http.Client {
	transport := &http.Transport{}
	if proxy != nil {
		transport.Proxy = proxy
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}
}

func proxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// Fetch retrieves a URL's content, trying each strategy in order. A timeout
// on one strategy is a normal failure, not a fatal one.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	var lastErr error
	for _, s := range f.strategies {
		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		result, err := f.fetchWith(attemptCtx, s, rawURL)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err
		f.log.Debug("fetch strategy failed",
			slog.String("strategy", s.name), slog.String("url", rawURL), slog.Any("err", err))

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%w: %s (last: %v)", ErrUnreachable, rawURL, lastErr)
}

func (f *Fetcher) fetchWith(ctx context.Context, s strategy, rawURL string) (*Result, error) {
	target := rawURL
	if s.rewrite != nil {
		target = s.rewrite(rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Result{
		Content:      string(body),
		LastModified: parseLastModified(resp.Header.Get("Last-Modified")),
		FinalURL:     resp.Request.URL.String(),
		StatusCode:   resp.StatusCode,
		Strategy:     s.name,
	}, nil
}

// Probe issues a cheap HEAD request and returns the page's Last-Modified
// time, zero when the server does not report one.
func (f *Fetcher) Probe(ctx context.Context, rawURL string) (time.Time, error) {
	probeCtx, cancel := context.WithTimeout(ctx, f.probeTime)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, rawURL, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.strategies[0].client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("probe: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return time.Time{}, fmt.Errorf("probe status: %d", resp.StatusCode)
	}
	return parseLastModified(resp.Header.Get("Last-Modified")), nil
}

func parseLastModified(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC1123, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
