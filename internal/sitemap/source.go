// Package sitemap discovers candidate target URLs for a site. Discovery
// tries, in order: sitemap locations advertised in robots.txt, the
// conventional /sitemap.xml (including sitemap indexes), an RSS/Atom feed,
// and finally same-host anchors on the home page. The output is an
// unordered candidate set.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html"

	"github.com/pagemend/pagemend/internal/urlutil"
)

const maxURLs = 2000

// Source discovers URLs for one site
type Source struct {
	httpClient *http.Client
	feedParser *gofeed.Parser
	userAgent  string
	log        *slog.Logger
}

// New creates a sitemap source.
func New(timeout time.Duration, userAgent string, log *slog.Logger) *Source {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent

	return &Source{
		httpClient: client,
		feedParser: parser,
		userAgent:  userAgent,
		log:        log,
	}
}

type urlSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// Discover returns the normalized, deduplicated candidate URL set for
// rootURL.
func (s *Source) Discover(ctx context.Context, rootURL string) ([]string, error) {
	root, err := urlutil.Normalize(rootURL)
	if err != nil {
		return nil, fmt.Errorf("normalize root: %w", err)
	}

	base, err := url.Parse(root)
	if err != nil {
		return nil, fmt.Errorf("parse root: %w", err)
	}
	origin := base.Scheme + "://" + base.Host

	var candidates []string
	for _, sm := range s.sitemapLocations(ctx, origin) {
		urls, err := s.fetchSitemap(ctx, sm, 0)
		if err != nil {
			s.log.Debug("sitemap fetch failed", slog.String("url", sm), slog.Any("err", err))
			continue
		}
		candidates = append(candidates, urls...)
		if len(candidates) > 0 {
			break
		}
	}

	if len(candidates) == 0 {
		candidates = s.feedURLs(ctx, origin)
	}
	if len(candidates) == 0 {
		candidates, err = s.pageLinks(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", root, err)
		}
	}

	return s.normalize(root, candidates), nil
}

// sitemapLocations returns sitemap URLs to try: robots.txt hints first,
// then the conventional path.
func (s *Source) sitemapLocations(ctx context.Context, origin string) []string {
	locations := []string{}

	body, err := s.get(ctx, origin+"/robots.txt")
	if err == nil {
		if data, err := robotstxt.FromBytes(body); err == nil {
			locations = append(locations, data.Sitemaps...)
		}
	}

	locations = append(locations, origin+"/sitemap.xml")
	return locations
}

// fetchSitemap parses one sitemap document, following a sitemap index one
// level deep.
func (s *Source) fetchSitemap(ctx context.Context, sitemapURL string, depth int) ([]string, error) {
	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var set urlSet
	if err := xml.Unmarshal(body, &set); err == nil && len(set.URLs) > 0 {
		urls := make([]string, 0, len(set.URLs))
		for _, u := range set.URLs {
			if loc := strings.TrimSpace(u.Loc); loc != "" {
				urls = append(urls, loc)
			}
		}
		return urls, nil
	}

	if depth >= 1 {
		return nil, fmt.Errorf("nested sitemap index: %s", sitemapURL)
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	var urls []string
	for _, child := range index.Sitemaps {
		loc := strings.TrimSpace(child.Loc)
		if loc == "" {
			continue
		}
		childURLs, err := s.fetchSitemap(ctx, loc, depth+1)
		if err != nil {
			s.log.Debug("child sitemap failed", slog.String("url", loc), slog.Any("err", err))
			continue
		}
		urls = append(urls, childURLs...)
		if len(urls) >= maxURLs {
			break
		}
	}
	return urls, nil
}

// feedURLs tries the conventional feed endpoints.
func (s *Source) feedURLs(ctx context.Context, origin string) []string {
	for _, path := range []string{"/feed", "/rss.xml", "/atom.xml", "/index.xml"} {
		feed, err := s.feedParser.ParseURLWithContext(origin+path, ctx)
		if err != nil {
			continue
		}
		var urls []string
		for _, item := range feed.Items {
			if item.Link != "" {
				urls = append(urls, item.Link)
			}
		}
		if len(urls) > 0 {
			return urls
		}
	}
	return nil
}

// pageLinks walks same-host anchors on the page at root.
func (s *Source) pageLinks(ctx context.Context, root string) ([]string, error) {
	body, err := s.get(ctx, root)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, _ := url.Parse(root)
	var urls []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				href := strings.TrimSpace(attr.Val)
				if href == "" || strings.HasPrefix(href, "#") ||
					strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
					continue
				}
				if ref, err := url.Parse(href); err == nil {
					resolved := base.ResolveReference(ref)
					if strings.EqualFold(resolved.Host, base.Host) {
						urls = append(urls, resolved.String())
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return urls, nil
}

// normalize canonicalizes, restricts to the root's host, deduplicates and
// caps the candidate set.
func (s *Source) normalize(root string, raw []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, candidate := range raw {
		normalized, err := urlutil.Normalize(candidate)
		if err != nil || !urlutil.SameHost(root, normalized) {
			continue
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
		if len(out) >= maxURLs {
			break
		}
	}
	return out
}

func (s *Source) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 5_000_000))
}
