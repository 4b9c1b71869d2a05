package proxy

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// Manager handles the rotation of proxies and user agents.
// UserAgent is lock-free; proxy rotation is guarded by mu.
type Manager struct {
	proxies    []*url.URL
	userAgents []string
	mu         sync.Mutex
	proxyIndex int
}

// NewManager builds a manager from proxy URLs. An empty list means direct
// connections.
func NewManager(proxies []string) (*Manager, error) {
	m := &Manager{userAgents: defaultUserAgents}
	for _, raw := range proxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy url %q", raw)
		}
		m.proxies = append(m.proxies, u)
	}
	return m, nil
}

// WithUserAgents replaces the user-agent pool. Intended for tests.
func (m *Manager) WithUserAgents(agents ...string) *Manager {
	if len(agents) > 0 {
		m.userAgents = agents
	}
	return m
}

// ProxyCount reports how many proxies are configured.
func (m *Manager) ProxyCount() int { return len(m.proxies) }

// Proxy returns the next proxy, rotating sequentially. Its signature fits
// http.Transport.Proxy.
func (m *Manager) Proxy(_ *http.Request) (*url.URL, error) {
	if len(m.proxies) == 0 {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.proxies[m.proxyIndex]
	m.proxyIndex = (m.proxyIndex + 1) % len(m.proxies)
	return p, nil
}

// UserAgent returns a random user agent string.
func (m *Manager) UserAgent() string {
	if len(m.userAgents) == 0 {
		return ""
	}
	return m.userAgents[rand.IntN(len(m.userAgents))]
}

// ApplyHeaders sets a browser-like header set on req.
func (m *Manager) ApplyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", m.UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
