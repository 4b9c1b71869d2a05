package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/fetcher"
)

const resultsPerPage = 10

// GoogleProvider scrapes the basic (no-JS) HTML results page of a Google
// compatible search endpoint.
type GoogleProvider struct {
	baseURL string
	fetcher fetcher.Fetcher
	logger  *zap.Logger
}

// NewGoogleProvider searches against baseURL, e.g. "https://www.google.com".
func NewGoogleProvider(baseURL string, f fetcher.Fetcher, logger *zap.Logger) *GoogleProvider {
	return &GoogleProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: f,
		logger:  logger,
	}
}

// Search pages through results until max URLs are collected or a page adds
// nothing new.
func (g *GoogleProvider) Search(ctx context.Context, query string, max int) ([]string, error) {
	if max <= 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, max)
	results := make([]string, 0, max)

	for start := 0; len(results) < max; start += resultsPerPage {
		page, err := g.fetchPage(ctx, query, start, min(max-len(results), resultsPerPage))
		if err != nil {
			return results, err
		}
		added := 0
		for _, u := range page {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			results = append(results, u)
			added++
			if len(results) == max {
				break
			}
		}
		g.logger.Debug("search page parsed",
			zap.String("query", query),
			zap.Int("start", start),
			zap.Int("added", added),
		)
		if added == 0 {
			break
		}
	}
	return results, nil
}

func (g *GoogleProvider) fetchPage(ctx context.Context, query string, start, num int) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num+2)) // the engine tends to return fewer than asked
	params.Set("hl", "en")
	params.Set("start", strconv.Itoa(start))
	params.Set("safe", "active")
	endpoint := g.baseURL + "/search?" + params.Encode()

	resp, err := g.fetcher.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %w", ErrProvider, ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrProvider, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse results page: %w", ErrProvider, err)
	}
	return ParseResults(doc, resp.FinalURL), nil
}

// ParseResults pulls organic result links out of a results page, unwrapping
// "/url?q=" redirect links and skipping the engine's own navigation.
func ParseResults(doc *goquery.Document, pageURL *url.URL) []string {
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if target, ok := resultTarget(href, pageURL); ok {
			out = append(out, target)
		}
	})
	return out
}

func resultTarget(href string, pageURL *url.URL) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if u.Path == "/url" && u.Host == "" {
		q := u.Query().Get("q")
		if q == "" {
			q = u.Query().Get("url")
		}
		if u, err = url.Parse(q); err != nil {
			return "", false
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if isEngineHost(u.Hostname()) || (pageURL != nil && strings.EqualFold(u.Host, pageURL.Host)) {
		return "", false
	}
	return u.String(), true
}

func isEngineHost(host string) bool {
	host = strings.ToLower(host)
	return strings.Contains(host, "google.") || strings.HasSuffix(host, ".googleusercontent.com")
}

// IsRateLimited reports whether err came from a provider refusing queries.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
