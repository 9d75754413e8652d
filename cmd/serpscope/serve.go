package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/serpscope/serpscope/internal/ai"
	"github.com/serpscope/serpscope/internal/analyzer"
	"github.com/serpscope/serpscope/internal/blog"
	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/fetcher"
	"github.com/serpscope/serpscope/internal/observability"
	"github.com/serpscope/serpscope/internal/serp"
	"github.com/serpscope/serpscope/internal/server"
	"github.com/serpscope/serpscope/internal/storage"
)

var (
	serveHost string
	servePort int
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and dashboard",
		Long: `Start the HTTP server: a JSON API for searches, async analyze jobs,
stored analyses, reports, and blog drafts, with a live dashboard at /
and Prometheus metrics at /metrics.`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")

	return cmd
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(&cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()

	store, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()

	eng, err := analyzer.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create analyzer: %w", err)
	}
	defer eng.Close()
	eng.SetStore(store)

	if cfg.AI.Enabled {
		eng.SetInsighter(ai.NewClient(&cfg.AI, logger))
	}

	var proxies *fetcher.ProxyManager
	if cfg.Proxy.Enabled {
		proxies = fetcher.NewProxyManager(&cfg.Proxy, logger)
	}

	metrics := observability.NewMetrics(logger)

	srv := server.New(cfg, server.Deps{
		Runner:   eng,
		Searcher: serp.New(cfg, logger),
		Store:    store,
		Blogger:  blog.New(&cfg.Blog, logger),
		Proxies:  proxies,
		Metrics:  metrics,
	}, logger)

	fmt.Printf("🚀 SerpScope %s listening on http://%s:%d\n", config.Version, cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("   Dashboard: http://%s:%d/\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("   API:       http://%s:%d/api\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("   Metrics:   http://%s:%d/metrics\n", cfg.Server.Host, cfg.Server.Port)

	err = srv.Run(ctx)
	logger.Info("server stopped", "counters", metrics.Snapshot())
	return err
}
