package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/serpscope/serpscope/internal/monitor"
	"github.com/serpscope/serpscope/internal/storage"
	"github.com/serpscope/serpscope/internal/types"
)

var historyLimit int

// historyCmd creates the "history" subcommand.
func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: "List stored analyses and rank movement",
		Long: `Without a query, list every stored analysis. With a query, list its
runs and show how each URL moved between the two most recent ones.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "max runs to list (0 = config default)")

	return cmd
}

// runHistory executes the history command.
func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(&cfg.Logging)

	ctx := context.Background()
	store, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()

	if len(args) == 0 {
		return listAll(ctx, store)
	}
	return listQuery(ctx, store, strings.TrimSpace(args[0]), cfg.Analysis.HistoryLimit)
}

func listAll(ctx context.Context, store *storage.Multi) error {
	entries, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No stored analyses yet. Run: serpscope analyze \"your query\"")
		return nil
	}

	fmt.Printf("\n%-30s %-17s %6s %10s\n", "QUERY", "WHEN", "PAGES", "AVG SCORE")
	fmt.Println(strings.Repeat("-", 67))
	for _, e := range entries {
		query := e.Query
		if r := []rune(query); len(r) > 29 {
			query = string(r[:28]) + "…"
		}
		fmt.Printf("%-30s %-17s %6d %10d\n",
			query, e.Timestamp.Format("2006-01-02 15:04"), e.Pages, e.AvgScore)
	}
	fmt.Printf("\n%d stored analyses\n", len(entries))
	return nil
}

func listQuery(ctx context.Context, store *storage.Multi, query string, limit int) error {
	if historyLimit > 0 {
		limit = historyLimit
	}
	if limit <= 0 {
		limit = 20
	}

	runs, err := store.History(ctx, query, limit)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("no stored analyses for %q", query)
		}
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no stored analyses for %q", query)
	}

	fmt.Printf("\nRuns for %q (newest first):\n\n", query)
	fmt.Printf("%-17s %6s %10s %8s\n", "WHEN", "PAGES", "AVG SCORE", "SOURCE")
	fmt.Println(strings.Repeat("-", 45))
	for _, a := range runs {
		fmt.Printf("%-17s %6d %10d %8s\n",
			a.Timestamp.Format("2006-01-02 15:04"), a.Analyzed, a.Summary.AvgSEOScore, a.Source)
	}

	if len(runs) >= 2 {
		diff := monitor.Compare(runs[1], runs[0])
		if diff.HasMovement() {
			fmt.Printf("\n%s", diff.Markdown())
		} else {
			fmt.Println("\nNo movement between the two most recent runs.")
		}
	}
	return nil
}
