package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/serpscope/serpscope/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "serpscope",
		Short: "SerpScope — Comparative SEO analysis of search results",
		Long: `SerpScope searches the web for a query, fetches every ranking page,
and scores them against a shared SEO rubric so you can see exactly what
the competition does better.

Features:
  • SERP retrieval with fallback sources (Serper API, DuckDuckGo, Bing)
  • Concurrent page fetching with retries, proxies, and a headless-browser escape hatch
  • Seven-criterion SEO scoring with ranked comparison and gap analysis
  • Markdown, HTML, and PDF reports with per-page findings
  • SEO-optimized blog draft generation from competitor insights
  • Run-over-run rank movement tracking
  • File, SQLite, MongoDB, and S3 storage backends
  • REST API with async jobs, progress polling, and a live dashboard
  • Optional LLM-written strategy commentary (Ollama or OpenAI)`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(blogCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env, the config file, and environment overrides.
func loadConfig() (*config.Config, error) {
	config.LoadDotenv()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("SerpScope %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Search:\n")
			fmt.Printf("  Sources:           %s\n", strings.Join(cfg.Search.Sources, ", "))
			fmt.Printf("  Serper API key:    %s\n", maskKey(cfg.Search.SerperAPIKey))
			fmt.Printf("  Region:            %s\n", cfg.Search.Region)
			fmt.Printf("  Max Results:       %d\n", cfg.Search.MaxResults)
			fmt.Printf("  Timeout:           %s\n", cfg.Search.Timeout)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Concurrency:       %d\n", cfg.Fetcher.Concurrency)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Politeness Delay:  %s\n", cfg.Fetcher.PolitenessDelay)
			fmt.Printf("  Max Retries:       %d\n", cfg.Fetcher.MaxRetries)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Printf("\nProxy:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Proxy.Enabled)
			fmt.Printf("  Rotation:          %s\n", cfg.Proxy.Rotation)
			fmt.Printf("  Count:             %d\n", len(cfg.Proxy.URLs))
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Backends:          %s\n", strings.Join(cfg.Storage.Backends, ", "))
			fmt.Printf("  Output Dir:        %s\n", cfg.Storage.OutputDir)
			fmt.Printf("  File Formats:      %s\n", strings.Join(cfg.Storage.FileFormats, ", "))
			fmt.Printf("  Save Raw SERP:     %v\n", cfg.Storage.SaveRaw)
			fmt.Printf("\nServer:\n")
			fmt.Printf("  Listen:            %s:%d\n", cfg.Server.Host, cfg.Server.Port)
			fmt.Printf("  Job TTL:           %s\n", cfg.Server.JobTTL)
			fmt.Printf("\nAI:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.AI.Enabled)
			fmt.Printf("  Provider:          %s\n", cfg.AI.Provider)
			fmt.Printf("  Model:             %s\n", cfg.AI.Model)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setupLogger creates a structured logger from the logging config.
// The --verbose flag forces debug level regardless of config.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		out = os.Stdout
	default:
		if f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			out = f
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}
