// Package fetcher performs the single GET used by both the harvester and
// the validator, classifying transport failures.
package fetcher

import (
	"context"
	"errors"
	"mime"
	"net"
	"net/url"
)

var (
	// ErrTimeout means the request exceeded its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrTransport covers connection, DNS, TLS and other transport failures.
	ErrTransport = errors.New("transport failure")
)

// Response is the result of a completed GET after redirects.
type Response struct {
	StatusCode  int
	FinalURL    *url.URL
	ContentType string
	Body        []byte
}

// IsMarkup reports whether the response declares an HTML-like body. An
// undeclared content type is given the benefit of the doubt.
func (r *Response) IsMarkup() bool {
	if r.ContentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain", "application/xml", "text/xml":
		return true
	}
	return false
}

// Fetcher issues one GET, following redirects, bounded by its own deadline.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*Response, error)
}

// classify wraps err with ErrTimeout or ErrTransport.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrTransport) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Join(ErrTimeout, err)
	}
	return errors.Join(ErrTransport, err)
}

// IsTimeout reports whether err was classified as a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
