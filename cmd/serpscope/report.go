package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/serpscope/serpscope/internal/monitor"
	"github.com/serpscope/serpscope/internal/report"
	"github.com/serpscope/serpscope/internal/storage"
	"github.com/serpscope/serpscope/internal/types"
)

var (
	reportFormats string
	reportOutput  string
	reportStdout  bool
)

// reportCmd creates the "report" subcommand.
func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [query]",
		Short: "Render a report from the latest stored analysis",
		Long: `Load the most recent stored analysis for a query and render it as
markdown, HTML, or PDF. Markdown reports include the rank movement
section when an earlier run exists.`,
		Args: cobra.ExactArgs(1),
		RunE: runReport,
	}

	cmd.Flags().StringVarP(&reportFormats, "format", "f", "md", "comma-separated formats: md, html, pdf")
	cmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output directory (defaults to storage output dir)")
	cmd.Flags().BoolVar(&reportStdout, "stdout", false, "print markdown to stdout instead of a file")

	return cmd
}

// runReport executes the report command.
func runReport(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])

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

	a, err := store.Latest(ctx, query)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("no stored analysis for %q — run: serpscope analyze %q", query, query)
		}
		return err
	}

	md := report.Markdown(a)
	if runs, err := store.History(ctx, query, 2); err == nil && len(runs) >= 2 {
		if diff := monitor.Compare(runs[1], runs[0]); diff.HasMovement() {
			md += "\n" + diff.Markdown()
		}
	}

	if reportStdout {
		fmt.Println(md)
		return nil
	}

	outputDir := cfg.Storage.OutputDir
	if reportOutput != "" {
		outputDir = reportOutput
	}
	rc := report.NewRenderContext(a)

	for _, format := range strings.Split(reportFormats, ",") {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			continue
		}

		var (
			data []byte
			ext  string
		)
		switch format {
		case "md", "markdown":
			data, ext = []byte(md), "md"
		case "html":
			html, err := report.HTML(rc)
			if err != nil {
				return fmt.Errorf("render html report: %w", err)
			}
			data, ext = []byte(html), "html"
		case "pdf":
			pdf, err := report.PDF(rc)
			if err != nil {
				return fmt.Errorf("render pdf report: %w", err)
			}
			data, ext = pdf, "pdf"
		default:
			return fmt.Errorf("unknown report format %q (want md, html, or pdf)", format)
		}

		path := filepath.Join(outputDir, report.Filename(a, ext))
		if err := writeArtifact(path, data); err != nil {
			return err
		}
		fmt.Printf("📄 %s\n", path)
	}
	return nil
}
