// Package search turns a query into organic result URLs.
package search

import (
	"context"
	"errors"
)

var (
	// ErrProvider wraps every failure reported by a search provider.
	ErrProvider = errors.New("search provider error")
	// ErrRateLimited means the provider refused further queries for now.
	ErrRateLimited = errors.New("search provider rate limited")
)

// Provider returns up to max result URLs for query. On failure it returns
// the results gathered so far together with an error wrapping ErrProvider.
type Provider interface {
	Search(ctx context.Context, query string, max int) ([]string, error)
}

// StaticProvider serves a fixed list of result URLs, e.g. seed pages given
// on the command line.
type StaticProvider struct {
	URLs []string
}

func (p StaticProvider) Search(_ context.Context, _ string, max int) ([]string, error) {
	if max <= 0 || max > len(p.URLs) {
		max = len(p.URLs)
	}
	out := make([]string, max)
	copy(out, p.URLs[:max])
	return out, nil
}
