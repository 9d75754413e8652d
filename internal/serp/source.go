// Package serp retrieves organic search results for a query. Sources are
// tried in configured order: the Serper API when a key is present, then
// the DuckDuckGo HTML endpoint, then Bing. Each source assigns SERP
// positions from its own result order.
package serp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/fetcher"
	"github.com/serpscope/serpscope/internal/types"
)

// Source is one way of turning a query into organic results.
type Source interface {
	// Name identifies the source in logs and in Analysis.Source.
	Name() string

	// Search returns up to limit organic results in SERP order, with
	// Position assigned 1..n. A block page yields types.ErrBlocked; an
	// empty result set yields types.ErrNoResults.
	Search(ctx context.Context, query string, limit int) ([]types.SerpResult, error)
}

// region splits a "us-en" style region code into country and language.
func region(code string) (country, lang string) {
	parts := strings.SplitN(code, "-", 2)
	country, lang = "us", "en"
	if len(parts) > 0 && parts[0] != "" {
		country = strings.ToLower(parts[0])
	}
	if len(parts) > 1 && parts[1] != "" {
		lang = strings.ToLower(parts[1])
	}
	return country, lang
}

// newSearchClient builds the shared HTTP client for HTML sources. The
// browser-like transport keeps header order and TLS fingerprint close to
// a real browser, which is what keeps the HTML endpoints answering.
func newSearchClient(timeout time.Duration, logger *slog.Logger) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{
		Transport: fetcher.NewTLSTransport(logger),
		Timeout:   timeout,
	}
}

// New assembles the fallback chain from cfg.Search.Sources. Names are
// resolved through the source registry; unknown names are skipped with
// a warning, as are sources whose builder rejects the config such as
// "serper" without an API key.
func New(cfg *config.Config, logger *slog.Logger) *Chain {
	client := newSearchClient(cfg.Search.Timeout, logger)

	var sources []Source
	for _, name := range cfg.Search.Sources {
		build, ok := defaultRegistry.Lookup(name)
		if !ok {
			logger.Warn("unknown search source, skipping", "source", name, "known", Known())
			continue
		}
		src, err := build(cfg, client, logger)
		if err != nil {
			logger.Warn("search source unavailable, skipping", "source", name, "reason", err)
			continue
		}
		sources = append(sources, src)
	}

	return NewChain(sources, logger)
}
