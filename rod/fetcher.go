// Package rod provides browser-based HTML fetching using Chrome automation.
package rod

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/dirscrape"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultMaxPages is the number of pages fetched before the browser is
// recycled. Chrome accumulates memory over time (~0.5MB/s under load) and
// the baseline never returns to initial levels even with proper page
// cleanup, so the browser is relaunched periodically.
const DefaultMaxPages = 75

// DefaultSelectorWait bounds the wait for the configured selector.
const DefaultSelectorWait = 5 * time.Second

// DefaultRenderDelay is the settle time after load when no selector is
// configured, giving client-side rendering a chance to finish.
const DefaultRenderDelay = 2 * time.Second

// hydrationDelay is the settle time after lazy-load scrolling.
const hydrationDelay = 3 * time.Second

// Ensure Fetcher implements dirscrape.Fetcher at compile time.
var _ dirscrape.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	waitFor      string
	selectorWait time.Duration
	renderDelay  time.Duration
	scrollPasses int
	maxPages     int
	logger       *slog.Logger

	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
	pageCount int
	closed    bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithWaitForSelector makes each fetch wait for the selector to appear
// before reading the HTML. A timeout is logged and the fetch proceeds with
// whatever has rendered.
func WithWaitForSelector(selector string) Option {
	return func(f *Fetcher) {
		f.waitFor = selector
	}
}

// WithScrollPasses scrolls to the bottom of the page n times before
// reading the HTML, triggering lazy-loaded content.
func WithScrollPasses(n int) Option {
	return func(f *Fetcher) {
		f.scrollPasses = n
	}
}

// WithRenderDelay sets the settle time after page load when no selector
// is configured.
func WithRenderDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.renderDelay = d
	}
}

// WithMaxPages sets the number of pages before the browser is recycled.
func WithMaxPages(n int) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// WithLogger sets the logger for selector timeout warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		selectorWait: DefaultSelectorWait,
		renderDelay:  DefaultRenderDelay,
		maxPages:     DefaultMaxPages,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.launchLocked(); err != nil {
		return nil, err
	}
	return f, nil
}

// Fetch navigates to the URL, waits for rendering, and returns the HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browser, err := f.acquireBrowser()
	if err != nil {
		return "", err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	if f.waitFor != "" {
		if _, err := page.Timeout(f.selectorWait).Element(f.waitFor); err != nil {
			f.logger.Warn("timeout waiting for selector, continuing",
				"selector", f.waitFor,
				"url", url,
			)
		}
	} else if err := sleep(ctx, f.renderDelay); err != nil {
		return "", err
	}

	if f.scrollPasses > 0 {
		if err := f.scrollForLazyLoad(ctx, page); err != nil {
			return "", err
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	f.pageCount++
	f.mu.Unlock()

	return html, nil
}

// scrollForLazyLoad scrolls to the bottom of the page repeatedly with
// pauses, then waits for lazy-loaded content to hydrate.
func (f *Fetcher) scrollForLazyLoad(ctx context.Context, page *rod.Page) error {
	for i := 0; i < f.scrollPasses; i++ {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			return err
		}
		if err := sleep(ctx, time.Second); err != nil {
			return err
		}
	}
	return sleep(ctx, hydrationDelay)
}

// LauncherPID returns the process ID of the browser launcher, or zero when
// no browser is running. Used by tests that verify process cleanup.
func (f *Fetcher) LauncherPID() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.launcher == nil {
		return 0
	}
	return f.launcher.PID()
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.closeLocked()
}

// acquireBrowser returns the current browser, recycling it first when the
// page count has reached the recycling threshold.
func (f *Fetcher) acquireBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, dirscrape.Errorf(dirscrape.EINTERNAL, "fetcher is closed")
	}
	if f.pageCount >= f.maxPages {
		f.recycleLocked()
	}
	return f.browser, nil
}

// launchLocked starts a new browser instance with stability flags.
// Must be called with mu held.
func (f *Fetcher) launchLocked() error {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := lnchr.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	f.browser = browser
	f.launcher = lnchr
	return nil
}

// closeLocked shuts down the current browser and launcher.
// Must be called with mu held.
func (f *Fetcher) closeLocked() error {
	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.launcher != nil {
		f.launcher.Kill()
		f.launcher = nil
	}
	return err
}

// recycleLocked starts a fresh browser and closes the old one.
// If launching the new browser fails, the old browser is kept.
// Must be called with mu held.
func (f *Fetcher) recycleLocked() {
	oldBrowser := f.browser
	oldLauncher := f.launcher
	f.browser = nil
	f.launcher = nil

	if err := f.launchLocked(); err != nil {
		f.browser = oldBrowser
		f.launcher = oldLauncher
		return
	}

	if oldBrowser != nil {
		_ = oldBrowser.Close()
	}
	if oldLauncher != nil {
		oldLauncher.Kill()
	}
	f.pageCount = 0
}

// sleep waits for d or until the context is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
