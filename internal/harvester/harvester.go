// Package harvester discovers candidate invite links on search result
// pages.
package harvester

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/internal/fetcher"
	"github.com/user/invite-harvester/internal/invite"
	"github.com/user/invite-harvester/internal/search"
	"github.com/user/invite-harvester/pkg/metrics"
	"github.com/user/invite-harvester/pkg/utils"
)

// DefaultPageDelay is the pause between successive result page fetches.
const DefaultPageDelay = time.Second

// Harvester fetches result pages one at a time and collects the invite
// links they contain. Page fetches are deliberately sequential.
type Harvester struct {
	provider search.Provider
	fetcher  fetcher.Fetcher
	matcher  invite.Matcher
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// New builds a Harvester that waits delay between page fetches. A zero
// delay disables the pause.
func New(p search.Provider, f fetcher.Fetcher, m invite.Matcher, delay time.Duration, mt *metrics.Metrics, logger *zap.Logger) *Harvester {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Harvester{
		provider: p,
		fetcher:  f,
		matcher:  m,
		limiter:  rate.NewLimiter(limit, 1),
		metrics:  mt,
		logger:   logger,
	}
}

// Harvest searches for query and returns the deduplicated invite links
// found on up to resultCount result pages, sorted for stable output.
//
// A failing page is logged and skipped. A provider failure is returned
// together with whatever links the pages it did return yielded.
func (h *Harvester) Harvest(ctx context.Context, query string, resultCount int) ([]entity.CandidateLink, error) {
	pages, searchErr := h.provider.Search(ctx, query, resultCount)
	if searchErr != nil {
		h.logger.Warn("search provider failed",
			zap.String("query", query),
			zap.Int("results_before_failure", len(pages)),
			zap.Error(searchErr),
		)
		searchErr = fmt.Errorf("search %q: %w", query, searchErr)
	}

	found := make(map[entity.CandidateLink]struct{})
	for _, pageURL := range pages {
		// A result that is itself an invite needs no page fetch.
		if link, ok := h.matcher.Normalize(pageURL); ok {
			found[link] = struct{}{}
			continue
		}

		if err := h.limiter.Wait(ctx); err != nil {
			h.logger.Warn("harvest interrupted", zap.Error(err))
			break
		}

		links, err := h.scanPage(ctx, pageURL)
		if err != nil {
			h.metrics.IncHarvestPage("failed")
			h.logger.Warn("skipping result page",
				zap.String("url", pageURL),
				zap.Error(err),
			)
			continue
		}
		h.metrics.IncHarvestPage("fetched")
		for _, l := range links {
			found[l] = struct{}{}
		}
		h.logger.Debug("result page scanned",
			zap.String("url", pageURL),
			zap.Int("links", len(links)),
		)
	}

	out := make([]entity.CandidateLink, 0, len(found))
	for l := range found {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	h.metrics.SetHarvestCandidates(len(out))
	h.logger.Info("harvest finished",
		zap.String("query", query),
		zap.Int("pages", len(pages)),
		zap.Int("candidates", len(out)),
	)
	return out, searchErr
}

// scanPage fetches one result page and returns the invite links on it.
func (h *Harvester) scanPage(ctx context.Context, pageURL string) ([]entity.CandidateLink, error) {
	resp, err := h.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 0 && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return ScanLinks(doc, resp.FinalURL, h.matcher), nil
}

// ScanLinks returns every anchor target in doc that is an invite link,
// normalized. Relative hrefs are resolved against base.
func ScanLinks(doc *goquery.Document, base *url.URL, m invite.Matcher) []entity.CandidateLink {
	var out []entity.CandidateLink
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs, err := utils.ToAbsoluteURL(base, href)
		if err != nil || !m.HasPrefix(abs) {
			return
		}
		if link, ok := m.Normalize(abs); ok {
			out = append(out, link)
		}
	})
	return out
}
