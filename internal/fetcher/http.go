package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/types"
)

// standardHeaders go out on every fetch unless the request overrides
// them. Accept-Encoding advertises brotli because decoding happens in
// readBody rather than in the transport.
var standardHeaders = [...][2]string{
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	{"Accept-Language", "en-US,en;q=0.9"},
	{"Accept-Encoding", "gzip, deflate, br"},
	{"Connection", "keep-alive"},
}

// HTTPFetcher retrieves pages over plain HTTP with per-host politeness
// spacing, cookie persistence, and transparent response decoding.
type HTTPFetcher struct {
	client     *http.Client
	cfg        *config.FetcherConfig
	proxyMgr   *ProxyManager
	logger     *slog.Logger
	hosts      *hostLimits
	userAgents []string
	uaCursor   atomic.Int64
}

// NewHTTPFetcher builds the HTTP fetcher from configuration.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	f := &HTTPFetcher{
		cfg:        &cfg.Fetcher,
		logger:     logger.With("component", "http_fetcher"),
		hosts:      newHostLimits(cfg.Fetcher.PolitenessDelay),
		userAgents: cfg.Fetcher.UserAgents,
	}

	transport := newTransport(&cfg.Fetcher)
	if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
		f.proxyMgr = NewProxyManager(&cfg.Proxy, logger)
		transport.Proxy = f.proxyMgr.ProxyFunc()
	}

	f.client = &http.Client{
		Transport:     transport,
		Jar:           jar,
		Timeout:       cfg.Fetcher.RequestTimeout,
		CheckRedirect: redirectPolicy(&cfg.Fetcher),
	}
	return f, nil
}

// newTransport sets up connection pooling and TLS. Transport-level
// decompression stays off so the brotli path in readBody sees raw
// bytes.
func newTransport(cfg *config.FetcherConfig) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns / 2,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.TLSInsecure},
		DisableCompression:  true,
	}
}

// redirectPolicy enforces the configured redirect behavior.
func redirectPolicy(cfg *config.FetcherConfig) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if !cfg.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= cfg.MaxRedirects {
			return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
		}
		return nil
	}
}

// Fetch performs one GET and returns the decoded page. Statuses below
// 500 other than 429 come back as responses so the caller can score
// them; 429 and 5xx become retryable errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *types.PageRequest) (*types.PageResponse, error) {
	if err := f.hosts.wait(ctx, req.Domain()); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	httpReq, err := f.buildRequest(ctx, req)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	start := time.Now()
	httpResp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &types.FetchError{
			URL:       req.URLString(),
			Err:       err,
			Retryable: retryableNetErr(err),
		}
	}
	defer httpResp.Body.Close()

	if ferr := f.statusError(req, httpResp); ferr != nil {
		return nil, ferr
	}

	body, err := f.readBody(req, httpResp)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)

	resp := types.NewPageResponse(req, httpResp, body, duration)

	f.logger.Debug("fetch complete",
		"url", req.URLString(),
		"status", resp.StatusCode,
		"size", len(body),
		"duration", duration,
	)
	return resp, nil
}

// buildRequest assembles the outgoing GET with rotated identity headers
// and any per-request overrides.
func (f *HTTPFetcher) buildRequest(ctx context.Context, req *types.PageRequest) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URLString(), nil)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("User-Agent", f.nextUserAgent())
	for _, h := range standardHeaders {
		httpReq.Header.Set(h[0], h[1])
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Set(name, v)
		}
	}
	return httpReq, nil
}

// statusError turns throttling and server failures into retryable fetch
// errors. Anything else, including 4xx, is a real answer from the site
// and flows through as a response.
func (f *HTTPFetcher) statusError(req *types.PageRequest, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &types.FetchError{
			URL:        req.URLString(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP 429: rate limited (retry after %s): %s", wait, strings.TrimSpace(string(excerpt))),
			Retryable:  true,
			RetryAfter: wait,
		}
	case resp.StatusCode >= 500:
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &types.FetchError{
			URL:        req.URLString(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, excerpt),
			Retryable:  true,
		}
	}
	return nil
}

// readBody drains the response through the size cap and the declared
// content encoding. Decoder setup failures are permanent; mid-stream
// read failures are worth retrying.
func (f *HTTPFetcher) readBody(req *types.PageRequest, resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if f.cfg.MaxBodySize > 0 {
		r = io.LimitReader(r, f.cfg.MaxBodySize)
	}

	decoded, err := decodeBody(resp.Header.Get("Content-Encoding"), r)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}
	return body, nil
}

// Close drops idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Type returns the fetcher type identifier.
func (f *HTTPFetcher) Type() string {
	return types.FetcherHTTP
}

// nextUserAgent cycles through the configured agents.
func (f *HTTPFetcher) nextUserAgent() string {
	if len(f.userAgents) == 0 {
		return "SerpScope/" + config.Version
	}
	return f.userAgents[f.uaCursor.Add(1)%int64(len(f.userAgents))]
}

// hostLimits hands out one rate limiter per host so concurrent fetches
// of different results never queue behind each other, while repeat
// hits on one host keep the politeness spacing. A zero delay admits
// everything.
type hostLimits struct {
	every time.Duration
	mu    sync.Mutex
	m     map[string]*rate.Limiter
}

func newHostLimits(every time.Duration) *hostLimits {
	return &hostLimits{every: every, m: make(map[string]*rate.Limiter)}
}

func (h *hostLimits) wait(ctx context.Context, host string) error {
	h.mu.Lock()
	lim, ok := h.m[host]
	if !ok {
		limit := rate.Inf
		if h.every > 0 {
			limit = rate.Every(h.every)
		}
		lim = rate.NewLimiter(limit, 1)
		h.m[host] = lim
	}
	h.mu.Unlock()

	return lim.Wait(ctx)
}

// decodeBody wraps r with the decoder the Content-Encoding header
// declares. Unknown encodings pass through untouched.
func decodeBody(encoding string, r io.Reader) (io.Reader, error) {
	switch encoding {
	case "gzip":
		return gzip.NewReader(r)
	case "deflate":
		return flate.NewReader(r), nil
	case "br":
		return brotli.NewReader(r), nil
	}
	return r, nil
}

// retryableNetErr reports whether a transport error is transient.
// Cancellation is deliberate and never retried; timeouts, resets,
// refused connections, and truncated streams are.
func retryableNetErr(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED):
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parseRetryAfter reads a Retry-After header given either as delay
// seconds or as an HTTP date. Malformed or missing values fall back to
// five seconds; honored waits stay between one second and two minutes.
func parseRetryAfter(header string) time.Duration {
	const (
		fallback = 5 * time.Second
		ceiling  = 2 * time.Minute
	)

	header = strings.TrimSpace(header)
	if header == "" {
		return fallback
	}

	if secs, err := strconv.Atoi(header); err == nil {
		switch d := time.Duration(secs) * time.Second; {
		case d < time.Second:
			return time.Second
		case d > ceiling:
			return ceiling
		default:
			return d
		}
	}

	if at, err := http.ParseTime(header); err == nil {
		switch d := time.Until(at); {
		case d < time.Second:
			return time.Second
		case d > ceiling:
			return ceiling
		default:
			return d
		}
	}

	return fallback
}

// RandomDelay jitters base by up to a quarter in either direction so
// retry attempts never line up.
func RandomDelay(base time.Duration) time.Duration {
	span := float64(base) / 2
	return base - time.Duration(span/2) + time.Duration(rand.Float64()*span)
}
