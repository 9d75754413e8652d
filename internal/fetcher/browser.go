package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/types"
)

// waitSelectorTimeout bounds how long a fetch blocks on the optional
// wait_selector before snapshotting whatever has rendered.
const waitSelectorTimeout = 10 * time.Second

// BrowserFetcher renders pages in headless Chromium through Rod.
// Result pages that build their content client side come back from the
// HTTP fetcher as empty shells; this fetcher waits for the DOM to
// settle and returns the rendered document instead.
type BrowserFetcher struct {
	browser  *rod.Browser
	cfg      *config.BrowserConfig
	timeout  time.Duration
	identity *StealthConfig
	proxyMgr *ProxyManager
	logger   *slog.Logger

	idle     chan *rod.Page
	maxPages int

	closeOnce sync.Once
	closeErr  error
}

// BrowserOption adjusts the fetcher before the browser launches.
type BrowserOption func(*BrowserFetcher)

// WithStealth applies the given identity to every page the fetcher
// opens.
func WithStealth(cfg *StealthConfig) BrowserOption {
	return func(bf *BrowserFetcher) { bf.identity = cfg }
}

// WithBrowserProxy routes browser traffic through the proxy pool.
func WithBrowserProxy(pm *ProxyManager) BrowserOption {
	return func(bf *BrowserFetcher) { bf.proxyMgr = pm }
}

// WithMaxPages caps how many tabs are kept open for reuse.
func WithMaxPages(n int) BrowserOption {
	return func(bf *BrowserFetcher) {
		if n > 0 {
			bf.maxPages = n
		}
	}
}

// NewBrowserFetcher launches headless Chromium and connects to it. The
// returned fetcher is safe for concurrent use; tabs are pooled up to
// the configured cap.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger, opts ...BrowserOption) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		cfg:      &cfg.Browser,
		timeout:  cfg.Browser.PageTimeout,
		logger:   logger.With("component", "browser_fetcher"),
		maxPages: cfg.Browser.PoolSize,
	}
	for _, opt := range opts {
		opt(bf)
	}
	if bf.maxPages <= 0 {
		bf.maxPages = 2
	}

	controlURL, err := bf.launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	bf.browser = rod.New().ControlURL(controlURL)
	if err := bf.browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.idle = make(chan *rod.Page, bf.maxPages)

	bf.logger.Info("browser fetcher ready",
		"max_pages", bf.maxPages,
		"stealth", bf.identity != nil,
	)
	return bf, nil
}

// launch starts Chromium with flags that keep it quiet in containers
// and strip the automation banner.
func (bf *BrowserFetcher) launch() (string, error) {
	l := launcher.New().
		Headless(bf.cfg.Headless).
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-features", "IsolateOrigins,site-per-process")

	if bf.cfg.BinPath != "" {
		l = l.Bin(bf.cfg.BinPath)
	}
	if bf.proxyMgr != nil {
		if u := bf.proxyMgr.Next(); u != nil {
			l = l.Proxy(u.String())
		}
	}
	if id := bf.identity; id != nil {
		if id.WindowSize != "" {
			l = l.Set("window-size", id.WindowSize)
		}
		if id.UserDataDir != "" {
			l = l.UserDataDir(id.UserDataDir)
		}
	}
	return l.Launch()
}

// Fetch renders the requested URL and returns the final DOM as HTML.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.PageRequest) (*types.PageResponse, error) {
	start := time.Now()

	page, err := bf.acquirePage()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}
	defer bf.releasePage(page)

	// Bind request-scoped work to the caller's context; the pooled
	// page itself keeps its own.
	work := page.Context(ctx)
	bf.applyHeaders(work, req)

	timeout := bf.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	if err := bf.render(work, req, timeout); err != nil {
		return nil, &types.FetchError{
			URL:       req.URLString(),
			Err:       err,
			Retryable: !errors.Is(err, context.Canceled),
		}
	}

	html, err := work.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}

	finalURL := req.URLString()
	if info, err := work.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	// Rod does not surface the main document status; a page that
	// rendered is reported as 200.
	duration := time.Since(start)
	resp := types.NewBrowserPageResponse(req, 200, []byte(html), finalURL, duration)

	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)
	return resp, nil
}

// applyHeaders pushes request headers into the page session. The
// User-Agent needs its own CDP call; everything else rides on
// SetExtraHeaders.
func (bf *BrowserFetcher) applyHeaders(page *rod.Page, req *types.PageRequest) {
	if ua := req.Header.Get("User-Agent"); ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			bf.logger.Warn("user agent override failed", "error", err)
		}
	}

	extra := make([]string, 0, len(req.Header)*2)
	for name, values := range req.Header {
		if name == "User-Agent" {
			continue
		}
		for _, v := range values {
			extra = append(extra, name, v)
		}
	}
	if len(extra) > 0 {
		if _, err := page.SetExtraHeaders(extra); err != nil {
			bf.logger.Warn("extra headers not applied", "error", err)
		}
	}
}

// render drives navigation and the post-load waits. Stability and
// selector waits degrade to warnings; navigation failures do not.
func (bf *BrowserFetcher) render(page *rod.Page, req *types.PageRequest, timeout time.Duration) error {
	if err := page.Timeout(timeout).Navigate(req.URLString()); err != nil {
		return err
	}

	settle := bf.cfg.WaitStable
	if settle <= 0 {
		settle = 300 * time.Millisecond
	}
	if err := page.Timeout(timeout).WaitStable(settle); err != nil {
		bf.logger.Warn("page did not stabilize, snapshotting anyway",
			"url", req.URLString(), "error", err)
	}

	if sel, ok := req.Meta["wait_selector"].(string); ok && sel != "" {
		bf.awaitSelector(page, sel)
	}
	return nil
}

// awaitSelector blocks until the selector is visible or the wait times
// out. A missing selector means the page layout changed, which is not
// worth failing the whole fetch over.
func (bf *BrowserFetcher) awaitSelector(page *rod.Page, sel string) {
	el, err := page.Timeout(waitSelectorTimeout).Element(sel)
	if err != nil {
		bf.logger.Warn("wait selector not found", "selector", sel, "error", err)
		return
	}
	if err := el.WaitVisible(); err != nil {
		bf.logger.Warn("wait selector never became visible", "selector", sel, "error", err)
	}
}

// Close shuts the browser down. Safe to call more than once.
func (bf *BrowserFetcher) Close() error {
	bf.closeOnce.Do(func() {
		close(bf.idle)
		for page := range bf.idle {
			_ = page.Close()
		}
		if bf.browser != nil {
			bf.closeErr = bf.browser.Close()
		}
	})
	return bf.closeErr
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return types.FetcherBrowser
}

// acquirePage reuses an idle tab when one is available. New tabs get
// the stealth patches before they ever navigate, so pooled tabs stay
// patched for their whole lifetime.
func (bf *BrowserFetcher) acquirePage() (*rod.Page, error) {
	select {
	case page := <-bf.idle:
		return page, nil
	default:
		return bf.newPage()
	}
}

func (bf *BrowserFetcher) newPage() (*rod.Page, error) {
	if bf.identity == nil {
		return bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}

	page, err := stealth.Page(bf.browser)
	if err != nil {
		return nil, fmt.Errorf("stealth page: %w", err)
	}
	// Layer the configured identity over the generic evasions.
	if _, err := page.EvalOnNewDocument(bf.identity.PatchJS()); err != nil {
		bf.logger.Warn("identity patch not injected", "error", err)
	}
	return page, nil
}

// releasePage parks the tab for reuse, or closes it when the pool is
// full. Parked tabs sit on about:blank so the previous document can be
// collected.
func (bf *BrowserFetcher) releasePage(page *rod.Page) {
	_ = page.Navigate("about:blank")
	select {
	case bf.idle <- page:
	default:
		_ = page.Close()
	}
}
