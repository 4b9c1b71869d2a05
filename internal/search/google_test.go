package search_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/fetcher"
	"github.com/user/invite-harvester/internal/proxy"
	"github.com/user/invite-harvester/internal/search"
)

func newProvider(t *testing.T, baseURL string) *search.GoogleProvider {
	t.Helper()
	pm, err := proxy.NewManager(nil)
	require.NoError(t, err)
	return search.NewGoogleProvider(baseURL, fetcher.NewHTTPFetcher(pm, 5*time.Second), zap.NewNop())
}

func resultsPage(links ...string) string {
	body := `<html><body><a href="/search?q=next&start=10">Next</a><a href="https://accounts.google.com/login">Sign in</a>`
	for _, l := range links {
		body += fmt.Sprintf(`<div class="g"><a href="%s">result</a></div>`, l)
	}
	return body + `</body></html>`
}

func TestGoogleProvider_ParsesAndPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "study groups", r.URL.Query().Get("q"))
		switch r.URL.Query().Get("start") {
		case "0":
			fmt.Fprint(w, resultsPage(
				"/url?q=https://blog.example/groups&sa=U",
				"https://forum.example/thread/1",
				"https://forum.example/thread/1",
			))
		case "10":
			fmt.Fprint(w, resultsPage("https://list.example/whatsapp"))
		default:
			fmt.Fprint(w, resultsPage())
		}
	}))
	defer srv.Close()

	got, err := newProvider(t, srv.URL).Search(context.Background(), "study groups", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://blog.example/groups",
		"https://forum.example/thread/1",
		"https://list.example/whatsapp",
	}, got)
}

func TestGoogleProvider_StopsAtMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, resultsPage("https://a.example/", "https://b.example/", "https://c.example/"))
	}))
	defer srv.Close()

	got, err := newProvider(t, srv.URL).Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/", "https://b.example/"}, got)
}

func TestGoogleProvider_RateLimitedKeepsPartialResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") == "0" {
			fmt.Fprint(w, resultsPage("https://a.example/"))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	got, err := newProvider(t, srv.URL).Search(context.Background(), "q", 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrProvider)
	assert.True(t, search.IsRateLimited(err))
	assert.Equal(t, []string{"https://a.example/"}, got)
}

func TestGoogleProvider_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	got, err := newProvider(t, base).Search(context.Background(), "q", 5)
	assert.ErrorIs(t, err, search.ErrProvider)
	assert.Empty(t, got)
}

func TestGoogleProvider_ZeroMax(t *testing.T) {
	got, err := newProvider(t, "http://unused.invalid").Search(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStaticProvider(t *testing.T) {
	p := search.StaticProvider{URLs: []string{"https://a.example/", "https://b.example/"}}

	got, err := p.Search(context.Background(), "ignored", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/"}, got)

	got, err = p.Search(context.Background(), "ignored", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
