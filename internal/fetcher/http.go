package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/user/invite-harvester/internal/proxy"
)

const (
	defaultMaxBodySize  = 4 << 20
	defaultMaxRedirects = 10
)

// HTTPFetcher fetches pages with net/http. One instance shares its
// connection pool across goroutines.
type HTTPFetcher struct {
	client      *http.Client
	headers     *proxy.Manager
	timeout     time.Duration
	maxBodySize int64
}

// NewHTTPFetcher builds a fetcher whose requests each get timeout as their
// deadline. Proxies and user agents come from pm.
func NewHTTPFetcher(pm *proxy.Manager, timeout time.Duration) *HTTPFetcher {
	transport := &http.Transport{
		Proxy: pm.Proxy,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= defaultMaxRedirects {
				return fmt.Errorf("stopped after %d redirects", defaultMaxRedirects)
			}
			pm.ApplyHeaders(req)
			return nil
		},
	}
	return &HTTPFetcher{
		client:      client,
		headers:     pm,
		timeout:     timeout,
		maxBodySize: defaultMaxBodySize,
	}
}

// Get fetches rawURL. A non-2xx status is not an error; the caller
// classifies it.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", errors.Join(ErrTransport, err))
	}
	f.headers.ApplyHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, classify(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, classify(err))
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
