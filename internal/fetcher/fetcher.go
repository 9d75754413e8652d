package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/types"
)

// Fetcher retrieves landing pages for analysis.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL.
	Fetch(ctx context.Context, req *types.PageRequest) (*types.PageResponse, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// New builds the fetcher selected by cfg.Fetcher.Type.
func New(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Fetcher.Type {
	case types.FetcherHTTP, "":
		return NewHTTPFetcher(cfg, logger)
	case types.FetcherBrowser:
		opts := []BrowserOption{WithMaxPages(cfg.Browser.PoolSize)}
		if cfg.Browser.Stealth {
			opts = append(opts, WithStealth(DefaultStealthConfig()))
		}
		if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
			opts = append(opts, WithBrowserProxy(NewProxyManager(&cfg.Proxy, logger)))
		}
		return NewBrowserFetcher(cfg, logger, opts...)
	default:
		return nil, fmt.Errorf("unknown fetcher type %q", cfg.Fetcher.Type)
	}
}
