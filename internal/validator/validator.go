// Package validator decides whether one candidate invite link is still
// joinable.
package validator

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/entity"
	"github.com/user/invite-harvester/internal/extractor"
	"github.com/user/invite-harvester/internal/fetcher"
	"github.com/user/invite-harvester/internal/invite"
	"github.com/user/invite-harvester/pkg/metrics"
)

// Validator classifies candidate links. It keeps no per-call state, so one
// instance serves every worker in the pool.
type Validator struct {
	fetcher fetcher.Fetcher
	matcher invite.Matcher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(f fetcher.Fetcher, m invite.Matcher, mt *metrics.Metrics, logger *zap.Logger) *Validator {
	return &Validator{
		fetcher: f,
		matcher: m,
		metrics: mt,
		logger:  logger,
	}
}

// Validate fetches raw once and returns its GroupRecord. It never returns
// an error: every failure becomes a non-Active status. There are no retries.
func (v *Validator) Validate(ctx context.Context, raw string) entity.GroupRecord {
	start := time.Now()
	rec := v.classify(ctx, raw)
	v.metrics.ObserveValidation(rec.Status.String(), string(rec.Status.Category()), time.Since(start))

	v.logger.Debug("link validated",
		zap.String("link", rec.Link.String()),
		zap.Stringer("status", rec.Status),
		zap.Int("http_status", rec.HTTPStatusCode),
		zap.String("reason", rec.Error),
	)
	return rec
}

func (v *Validator) classify(ctx context.Context, raw string) entity.GroupRecord {
	link, ok := v.matcher.Normalize(raw)
	if !ok {
		return entity.NewFailedRecord(entity.CandidateLink(raw), entity.StatusNotWhatsAppLink, 0,
			fmt.Sprintf("not an invite link on %s", v.matcher.Domain()))
	}

	resp, err := v.fetcher.Get(ctx, link.String())
	if err != nil {
		if fetcher.IsTimeout(err) {
			return entity.NewFailedRecord(link, entity.StatusTimeout, 0, err.Error())
		}
		return entity.NewFailedRecord(link, entity.StatusNetworkError, 0, err.Error())
	}

	// A zero status means the fetcher could not observe one (headless mode).
	switch code := resp.StatusCode; {
	case code == http.StatusNotFound:
		return entity.NewFailedRecord(link, entity.StatusExpired, code, "invite page not found")
	case code != 0 && (code < 200 || code >= 300):
		return entity.NewFailedRecord(link, entity.StatusNetworkError, code,
			fmt.Sprintf("unexpected status %d", code))
	}

	if !v.matcher.IsInviteHost(resp.FinalURL) {
		final := "<none>"
		if resp.FinalURL != nil {
			final = resp.FinalURL.String()
		}
		return entity.NewFailedRecord(link, entity.StatusExpired, resp.StatusCode,
			"redirected off the invite domain to "+final)
	}

	if !resp.IsMarkup() {
		return entity.NewFailedRecord(link, entity.StatusParsingError, resp.StatusCode,
			fmt.Sprintf("response is %q, not markup", resp.ContentType))
	}
	md, err := extractor.Extract(bytes.NewReader(resp.Body))
	if err != nil {
		return entity.NewFailedRecord(link, entity.StatusParsingError, resp.StatusCode, err.Error())
	}
	if md.Name == "" {
		return entity.NewFailedRecord(link, entity.StatusNoNameFound, resp.StatusCode, "no group name in page metadata")
	}
	return entity.NewActiveRecord(link, md.Name, md.LogoURL, md.Description, resp.StatusCode)
}
