package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/serp"
)

var (
	searchLimit   int
	searchSources string
	searchJSON    bool
)

// searchCmd creates the "search" subcommand.
func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Retrieve search results without analyzing pages",
		Long: `Query the configured SERP sources and print the organic results.
Sources are tried in order until one answers; nothing is fetched or
scored.`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVarP(&searchLimit, "results", "n", 0, "number of results (0 = config default)")
	cmd.Flags().StringVar(&searchSources, "sources", "", "comma-separated SERP source order")
	cmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")

	return cmd
}

// runSearch executes the search command.
func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])
	if err := config.ValidateQuery(query); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if searchSources != "" {
		var sources []string
		for _, s := range strings.Split(searchSources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sources = append(sources, s)
			}
		}
		cfg.Search.Sources = sources
	}
	limit := cfg.Search.MaxResults
	if searchLimit > 0 {
		limit = searchLimit
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(&cfg.Logging)
	chain := serp.New(cfg, logger)

	// One timeout per source plus slack for backoff between them.
	overall := time.Duration(len(cfg.Search.Sources)+1) * cfg.Search.Timeout
	ctx, cancel := context.WithTimeout(context.Background(), overall)
	defer cancel()

	start := time.Now()
	results, source, err := chain.Search(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"query":   query,
			"source":  source,
			"results": results,
		})
	}

	fmt.Printf("\n🔍 %q via %s — %d results in %s\n\n", query, source, len(results), time.Since(start).Round(time.Millisecond))
	for _, r := range results {
		fmt.Printf("%2d. %s\n    %s\n", r.Position, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Printf("    %s\n", truncateSnippet(r.Snippet, 120))
		}
		fmt.Println()
	}
	return nil
}

func truncateSnippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
