package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/invite-harvester/internal/proxy"
)

// BrowserFetcher renders pages in headless Chrome. It is slower than
// HTTPFetcher but sees script-inserted links on search result pages.
type BrowserFetcher struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	timeout       time.Duration
	logger        *zap.Logger
}

// NewBrowserFetcher launches one headless browser; each Get opens a tab.
func NewBrowserFetcher(pm *proxy.Manager, timeout time.Duration, logger *zap.Logger) (*BrowserFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(pm.UserAgent()),
	)
	if p, _ := pm.Proxy(nil); p != nil {
		opts = append(opts, chromedp.ProxyServer(p.String()))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	// Start the browser now so a missing Chrome fails at startup.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start headless browser: %w", err)
	}

	return &BrowserFetcher{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		timeout:       timeout,
		logger:        logger,
	}, nil
}

// Get navigates a fresh tab to rawURL and returns the rendered markup.
func (f *BrowserFetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	// The caller's cancellation still applies to the tab.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var status atomic.Int64
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			status.Store(e.Response.Status)
		}
	})

	var (
		location string
		markup   string
	)
	start := time.Now()
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", rawURL, classify(err))
	}

	final, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse final location %q: %w", location, classify(err))
	}
	f.logger.Debug("rendered page",
		zap.String("url", rawURL),
		zap.String("final_url", location),
		zap.Int64("status", status.Load()),
		zap.Duration("duration", time.Since(start)),
	)

	return &Response{
		StatusCode:  int(status.Load()),
		FinalURL:    final,
		ContentType: "text/html",
		Body:        []byte(markup),
	}, nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() {
	f.browserCancel()
	f.allocCancel()
}
