// Package invite recognizes and canonicalizes group invite links.
package invite

import (
	"net/url"
	"strings"

	"github.com/user/invite-harvester/internal/entity"
)

// DefaultDomain is the messaging platform's invite-link host.
const DefaultDomain = "chat.whatsapp.com"

// Matcher normalizes raw URLs against one fixed invite domain.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	domain string
}

// NewMatcher returns a Matcher for domain, or for DefaultDomain when empty.
func NewMatcher(domain string) Matcher {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		domain = DefaultDomain
	}
	return Matcher{domain: domain}
}

// Domain returns the host the matcher accepts.
func (m Matcher) Domain() string { return m.domain }

// HasPrefix reports whether href literally starts with the invite prefix.
// It is the cheap pre-filter used while scanning scraped anchors.
func (m Matcher) HasPrefix(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(lower, "https://"+m.domain+"/") ||
		strings.HasPrefix(lower, "http://"+m.domain+"/")
}

// IsInviteHost reports whether u points at the invite domain.
func (m Matcher) IsInviteHost(u *url.URL) bool {
	return u != nil && strings.EqualFold(u.Host, m.domain)
}

// Normalize canonicalizes raw into a CandidateLink. Query string, fragment,
// user info and a trailing slash are dropped. It returns false for anything
// that is not an http(s) URL on the invite domain with a non-empty path.
func (m Matcher) Normalize(raw string) (entity.CandidateLink, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "https" && scheme != "http" {
		return "", false
	}
	if !m.IsInviteHost(u) {
		return "", false
	}
	path := strings.TrimRight(u.EscapedPath(), "/")
	if path == "" {
		return "", false
	}
	canonical := url.URL{
		Scheme:  scheme,
		Host:    strings.ToLower(u.Host),
		RawPath: path,
	}
	canonical.Path, err = url.PathUnescape(path)
	if err != nil {
		return "", false
	}
	return entity.CandidateLink(canonical.String()), true
}

var defaultMatcher = NewMatcher(DefaultDomain)

// Normalize canonicalizes raw against DefaultDomain.
func Normalize(raw string) (entity.CandidateLink, bool) {
	return defaultMatcher.Normalize(raw)
}
