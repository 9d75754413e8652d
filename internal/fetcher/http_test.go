package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Fetcher.PolitenessDelay = 0
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("create fetcher: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func fetchURL(t *testing.T, f *HTTPFetcher, rawURL string) (*types.PageResponse, error) {
	t.Helper()
	req, err := types.NewPageRequest(rawURL, 1)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return f.Fetch(ctx, req)
}

// --- Basic Fetch Tests ---

func TestFetchPlainHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html><body><h1>hello</h1></body></html>")
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	resp, err := fetchURL(t, f, srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if !bytes.Contains(resp.Body, []byte("<h1>hello</h1>")) {
		t.Errorf("body missing expected content: %q", resp.Body)
	}
	if resp.FinalURL == "" {
		t.Error("expected final URL to be recorded")
	}
}

func TestFetchSetsUserAgent(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	if _, err := fetchURL(t, f, srv.URL); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	ua, _ := gotUA.Load().(string)
	if ua == "" {
		t.Fatal("expected a User-Agent header")
	}
	t.Logf("User-Agent: %s", ua)
}

func TestFetchCustomHeaders(t *testing.T) {
	var gotRef atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRef.Store(r.Header.Get("Referer"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	req, _ := types.NewPageRequest(srv.URL, 1)
	req.Header.Set("Referer", "https://www.google.com/")

	if _, err := f.Fetch(context.Background(), req); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if ref, _ := gotRef.Load().(string); ref != "https://www.google.com/" {
		t.Errorf("expected custom Referer to pass through, got %q", ref)
	}
}

// --- Decompression Tests ---

func TestFetchGzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "text/html")
		gz := gzip.NewWriter(w)
		io.WriteString(gz, "<html><body>compressed page</body></html>")
		gz.Close()
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	resp, err := fetchURL(t, f, srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Contains(resp.Body, []byte("compressed page")) {
		t.Errorf("gzip body not decoded: %q", resp.Body)
	}
}

func TestFetchBrotliBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.Header().Set("Content-Type", "text/html")
		bw := brotli.NewWriter(w)
		io.WriteString(bw, "<html><body>brotli page</body></html>")
		bw.Close()
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	resp, err := fetchURL(t, f, srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Contains(resp.Body, []byte("brotli page")) {
		t.Errorf("brotli body not decoded: %q", resp.Body)
	}
}

// --- Error Classification Tests ---

func TestFetch429ReturnsRetryableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := fetchURL(t, f, srv.URL)
	if err == nil {
		t.Fatal("expected error for 429")
	}

	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *types.FetchError, got %T", err)
	}
	if !fe.Retryable {
		t.Error("429 should be retryable")
	}
	if fe.RetryAfter != 7*time.Second {
		t.Errorf("expected RetryAfter 7s, got %s", fe.RetryAfter)
	}
}

func TestFetch500ReturnsRetryableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := fetchURL(t, f, srv.URL)
	if err == nil {
		t.Fatal("expected error for 500")
	}
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *types.FetchError, got %T", err)
	}
	if !fe.Retryable {
		t.Error("500 should be retryable")
	}
	if fe.StatusCode != 500 {
		t.Errorf("expected status 500, got %d", fe.StatusCode)
	}
}

func TestFetch404IsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	resp, err := fetchURL(t, f, srv.URL)
	if err != nil {
		t.Fatalf("4xx responses should come back as responses, got error %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestFetchContextCancelNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	req, _ := types.NewPageRequest(srv.URL, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, req)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	var fe *types.FetchError
	if errors.As(err, &fe) && fe.Retryable {
		t.Error("cancelled context must not be retryable")
	}
}

// --- Redirect Tests ---

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "landed")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newTestFetcher(t)
	resp, err := fetchURL(t, f, srv.URL+"/start")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200 after redirect, got %d", resp.StatusCode)
	}
	if resp.FinalURL != srv.URL+"/final" {
		t.Errorf("expected final URL %s/final, got %s", srv.URL, resp.FinalURL)
	}
}

// --- Politeness / Rate Limit Tests ---

func TestFetchPolitenessDelayBetweenSameDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Fetcher.PolitenessDelay = 150 * time.Millisecond
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("create fetcher: %v", err)
	}
	defer f.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := fetchURL(t, f, srv.URL); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	// First request is admitted immediately, the next two wait one
	// delay each.
	if elapsed < 250*time.Millisecond {
		t.Errorf("expected politeness spacing >=250ms across 3 fetches, took %s", elapsed)
	}
}

// --- Helper Tests ---

func TestParseRetryAfter(t *testing.T) {
	cases := []struct {
		header string
		want   time.Duration
	}{
		{"", 5 * time.Second},
		{"10", 10 * time.Second},
		{"999", 120 * time.Second},
		{"garbage", 5 * time.Second},
	}
	for _, tc := range cases {
		if got := parseRetryAfter(tc.header); got != tc.want {
			t.Errorf("parseRetryAfter(%q) = %s, want %s", tc.header, got, tc.want)
		}
	}
}

func TestRandomDelayWithinBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := RandomDelay(base)
		if d < 75*time.Millisecond || d > 125*time.Millisecond {
			t.Fatalf("delay %s outside ±25%% of %s", d, base)
		}
	}
}

func TestNextUserAgentRotates(t *testing.T) {
	f := newTestFetcher(t)
	seen := make(map[string]bool)
	for i := 0; i < len(f.userAgents)*2; i++ {
		seen[f.nextUserAgent()] = true
	}
	if len(seen) != len(f.userAgents) {
		t.Errorf("expected %d distinct agents in rotation, saw %d", len(f.userAgents), len(seen))
	}
}
