// Package serpscope provides a public SDK for embedding SerpScope as a
// library.
//
// Example usage:
//
//	client, err := serpscope.New(
//	    serpscope.WithMaxResults(10),
//	    serpscope.WithSources("duckduckgo", "bing"),
//	    serpscope.WithOutputDir("./seo-reports"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	analysis, err := client.Analyze(ctx, "ergonomic desk")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	md, _ := client.RenderReport(analysis, serpscope.ReportMarkdown)
//	fmt.Println(string(md))
package serpscope

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/serpscope/serpscope/internal/ai"
	"github.com/serpscope/serpscope/internal/analyzer"
	"github.com/serpscope/serpscope/internal/blog"
	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/monitor"
	"github.com/serpscope/serpscope/internal/report"
	"github.com/serpscope/serpscope/internal/serp"
	"github.com/serpscope/serpscope/internal/storage"
	"github.com/serpscope/serpscope/internal/types"
)

// ErrNotFound is returned by Latest, History, and Movement when no
// stored run matches, or when persistence is disabled.
var ErrNotFound = types.ErrNotFound

// ReportFormat selects a report renderer.
type ReportFormat string

const (
	ReportMarkdown ReportFormat = "md"
	ReportHTML     ReportFormat = "html"
	ReportPDF      ReportFormat = "pdf"
)

// Client is the high-level API for using SerpScope as a library.
type Client struct {
	cfg     *config.Config
	logger  *slog.Logger
	eng     *analyzer.Analyzer
	chain   *serp.Chain
	store   *storage.Multi
	blogger *blog.Generator
}

// Option configures a Client.
type Option func(*config.Config)

// WithMaxResults sets how many SERP results are retrieved and analyzed.
func WithMaxResults(n int) Option {
	return func(c *config.Config) { c.Search.MaxResults = n }
}

// WithSources sets the SERP source fallback order.
func WithSources(sources ...string) Option {
	return func(c *config.Config) { c.Search.Sources = sources }
}

// WithSerperKey enables the Serper API source with the given key.
func WithSerperKey(key string) Option {
	return func(c *config.Config) { c.Search.SerperAPIKey = key }
}

// WithRegion sets the search region, e.g. "us-en".
func WithRegion(region string) Option {
	return func(c *config.Config) { c.Search.Region = region }
}

// WithConcurrency sets the number of concurrent page fetch workers.
func WithConcurrency(n int) Option {
	return func(c *config.Config) { c.Fetcher.Concurrency = n }
}

// WithRequestTimeout sets the per-page fetch timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *config.Config) { c.Fetcher.RequestTimeout = d }
}

// WithBrowser switches page fetching to the headless browser.
func WithBrowser() Option {
	return func(c *config.Config) { c.Fetcher.Type = "browser" }
}

// WithProxies enables proxy rotation with the given proxy URLs.
func WithProxies(urls ...string) Option {
	return func(c *config.Config) {
		c.Proxy.Enabled = true
		c.Proxy.URLs = urls
	}
}

// WithStorageBackends selects persistence backends: "file", "sqlite",
// "mongo", "s3".
func WithStorageBackends(backends ...string) Option {
	return func(c *config.Config) { c.Storage.Backends = backends }
}

// WithOutputDir sets where analyses, reports, and blog drafts are written.
func WithOutputDir(dir string) Option {
	return func(c *config.Config) {
		c.Storage.OutputDir = dir
		c.Blog.OutputDir = dir
	}
}

// WithoutPersistence disables storage entirely; analyses are only
// returned, never saved.
func WithoutPersistence() Option {
	return func(c *config.Config) { c.Storage.Backends = nil }
}

// WithBlogTemplate uses a custom blog template file.
func WithBlogTemplate(path string) Option {
	return func(c *config.Config) { c.Blog.TemplatePath = path }
}

// WithOllama enables LLM insights through a local Ollama endpoint.
func WithOllama(model string) Option {
	return func(c *config.Config) {
		c.AI.Enabled = true
		c.AI.Provider = "ollama"
		c.AI.Model = model
	}
}

// WithOpenAI enables LLM insights through the OpenAI API.
func WithOpenAI(model, apiKey string) Option {
	return func(c *config.Config) {
		c.AI.Enabled = true
		c.AI.Provider = "openai"
		c.AI.Model = model
		c.AI.APIKey = apiKey
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// New creates a Client with the given options. Close releases the
// fetcher and storage resources.
func New(opts ...Option) (*Client, error) {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	eng, err := analyzer.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create analyzer: %w", err)
	}

	c := &Client{
		cfg:     cfg,
		logger:  logger,
		eng:     eng,
		chain:   serp.New(cfg, logger),
		blogger: blog.New(&cfg.Blog, logger),
	}

	if len(cfg.Storage.Backends) > 0 {
		store, err := storage.New(context.Background(), cfg, logger)
		if err != nil {
			eng.Close()
			return nil, fmt.Errorf("create storage: %w", err)
		}
		c.store = store
		eng.SetStore(store)
	}

	if cfg.AI.Enabled {
		eng.SetInsighter(ai.NewClient(&cfg.AI, logger))
	}

	return c, nil
}

// Analyze runs the full pipeline for one query: SERP retrieval, page
// fetching, scoring, and persistence when storage is configured.
func (c *Client) Analyze(ctx context.Context, query string) (*types.Analysis, error) {
	return c.eng.Run(ctx, query)
}

// Search retrieves SERP results without fetching or scoring pages. It
// returns the results and the name of the source that served them.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]types.SerpResult, string, error) {
	if limit <= 0 {
		limit = c.cfg.Search.MaxResults
	}
	return c.chain.Search(ctx, query, limit)
}

// RenderReport renders an analysis in the requested format.
func (c *Client) RenderReport(a *types.Analysis, format ReportFormat) ([]byte, error) {
	switch format {
	case ReportMarkdown, "":
		return []byte(report.Markdown(a)), nil
	case ReportHTML:
		html, err := report.HTML(report.NewRenderContext(a))
		if err != nil {
			return nil, err
		}
		return []byte(html), nil
	case ReportPDF:
		return report.PDF(report.NewRenderContext(a))
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// ReportFilename returns the conventional artifact name for an
// analysis in the given format.
func (c *Client) ReportFilename(a *types.Analysis, format ReportFormat) string {
	ext := string(format)
	if ext == "" {
		ext = "md"
	}
	return report.Filename(a, ext)
}

// GenerateBlog turns an analysis into a long-form blog draft.
func (c *Client) GenerateBlog(a *types.Analysis) (string, error) {
	return c.blogger.Generate(a)
}

// BlogFilename returns the conventional file name for a blog draft.
func (c *Client) BlogFilename(a *types.Analysis) string {
	return c.blogger.Filename(a)
}

// Latest loads the most recent stored analysis for a query.
func (c *Client) Latest(ctx context.Context, query string) (*types.Analysis, error) {
	if c.store == nil {
		return nil, fmt.Errorf("persistence disabled: %w", types.ErrNotFound)
	}
	return c.store.Latest(ctx, query)
}

// History loads up to limit stored analyses for a query, newest first.
func (c *Client) History(ctx context.Context, query string, limit int) ([]*types.Analysis, error) {
	if c.store == nil {
		return nil, fmt.Errorf("persistence disabled: %w", types.ErrNotFound)
	}
	return c.store.History(ctx, query, limit)
}

// Movement compares the two most recent stored runs of a query.
func (c *Client) Movement(ctx context.Context, query string) (*monitor.Diff, error) {
	if c.store == nil {
		return nil, fmt.Errorf("persistence disabled: %w", types.ErrNotFound)
	}
	return monitor.LatestDiff(ctx, c.store, query)
}

// Progress exposes the live progress stream of the running analysis.
func (c *Client) Progress() <-chan types.ProgressEvent {
	return c.eng.Progress()
}

// Stats returns pipeline counters accumulated across Analyze calls.
func (c *Client) Stats() map[string]any {
	return c.eng.Stats().Snapshot()
}

// Close releases the fetcher and storage resources.
func (c *Client) Close() error {
	err := c.eng.Close()
	if c.store != nil {
		if serr := c.store.Close(); err == nil {
			err = serr
		}
	}
	return err
}
