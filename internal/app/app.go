// Package app assembles the harvest pipeline from configuration. Both the
// API server and the CLI build their pipeline here.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/fetcher"
	"github.com/user/invite-harvester/internal/harvester"
	"github.com/user/invite-harvester/internal/invite"
	"github.com/user/invite-harvester/internal/orchestrator"
	"github.com/user/invite-harvester/internal/proxy"
	"github.com/user/invite-harvester/internal/repository"
	"github.com/user/invite-harvester/internal/search"
	"github.com/user/invite-harvester/internal/usecase"
	"github.com/user/invite-harvester/internal/validator"
	"github.com/user/invite-harvester/pkg/config"
	"github.com/user/invite-harvester/pkg/metrics"
)

// Options override parts of the configured pipeline.
type Options struct {
	// Provider replaces the configured search engine when set.
	Provider search.Provider
	// Workers overrides VALIDATE_WORKERS when positive.
	Workers int
	// Stager receives each run's Active records. Optional.
	Stager repository.StagedGroupRepository
}

// Core is an assembled pipeline plus what must be released with it.
type Core struct {
	Pipeline usecase.Pipeline
	Workers  int
	closers  []func()
}

// Close releases browser processes and other held resources.
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build wires fetchers, harvester, validator and orchestrator.
func Build(cfg *config.Config, opts Options, m *metrics.Metrics, logger *zap.Logger) (*Core, error) {
	pm, err := proxy.NewManager(cfg.Proxies)
	if err != nil {
		return nil, err
	}
	if pm.ProxyCount() > 0 {
		logger.Info("proxy rotation enabled", zap.Int("proxies", pm.ProxyCount()))
	}

	core := &Core{}
	var pages, invites fetcher.Fetcher
	switch cfg.FetchMode {
	case config.FetchModeBrowser:
		// One headless browser serves both stages; every tab gets the
		// validation deadline.
		bf, err := fetcher.NewBrowserFetcher(pm, cfg.ValidateTimeout, logger)
		if err != nil {
			return nil, fmt.Errorf("start headless browser: %w", err)
		}
		core.closers = append(core.closers, bf.Close)
		pages, invites = bf, bf
	default:
		pages = fetcher.NewHTTPFetcher(pm, cfg.PageTimeout)
		invites = fetcher.NewHTTPFetcher(pm, cfg.ValidateTimeout)
	}

	provider := opts.Provider
	if provider == nil {
		provider = search.NewGoogleProvider(cfg.SearchBaseURL, pages, logger)
	}

	workers := cfg.ValidateWorkers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	matcher := invite.NewMatcher(cfg.InviteDomain)
	h := harvester.New(provider, pages, matcher, cfg.PageDelay, m, logger.Named("harvester"))
	v := validator.New(invites, matcher, m, logger.Named("validator"))
	o := orchestrator.New(v, workers, m, logger.Named("orchestrator"))

	core.Workers = o.Workers()
	core.Pipeline = usecase.NewPipeline(h, o, opts.Stager, m, logger)
	return core, nil
}
