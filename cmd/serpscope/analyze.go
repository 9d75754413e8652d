package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/serpscope/serpscope/internal/ai"
	"github.com/serpscope/serpscope/internal/analyzer"
	"github.com/serpscope/serpscope/internal/blog"
	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/monitor"
	"github.com/serpscope/serpscope/internal/observability"
	"github.com/serpscope/serpscope/internal/report"
	"github.com/serpscope/serpscope/internal/storage"
	"github.com/serpscope/serpscope/internal/types"
)

var (
	analyzeResults int
	analyzeSources string
	analyzeOutput  string
	analyzeFetcher string
	analyzeReports string
	analyzeBlog    bool
	analyzeAI      bool
	analyzeNoSave  bool
)

// analyzeCmd creates the "analyze" subcommand.
func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [query]",
		Short: "Search a query and score every ranking page",
		Long: `Run the full pipeline for one query: retrieve the SERP, fetch each
ranking page, extract on-page metrics, score them against the SEO
rubric, and save the comparative analysis.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().IntVarP(&analyzeResults, "results", "n", 0, "number of results to analyze (0 = config default)")
	cmd.Flags().StringVar(&analyzeSources, "sources", "", "comma-separated SERP source order, e.g. serper,duckduckgo")
	cmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "output directory for saved analyses")
	cmd.Flags().StringVar(&analyzeFetcher, "fetcher", "", "page fetcher: http or browser")
	cmd.Flags().StringVarP(&analyzeReports, "report", "r", "", "also render reports: comma-separated md,html,pdf")
	cmd.Flags().BoolVar(&analyzeBlog, "blog", false, "also generate a blog draft from the results")
	cmd.Flags().BoolVar(&analyzeAI, "ai", false, "add LLM-written insights (needs ai config)")
	cmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "skip persistence, print the summary only")

	return cmd
}

// runAnalyze executes the analyze command.
func runAnalyze(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])
	if err := config.ValidateQuery(query); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyAnalyzeOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(&cfg.Logging)
	logger.Info("starting analysis",
		"query", query,
		"results", cfg.Search.MaxResults,
		"sources", cfg.Search.Sources,
		"fetcher", cfg.Fetcher.Type,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, stopping...", "signal", sig)
		cancel()
	}()

	eng, err := analyzer.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create analyzer: %w", err)
	}
	defer eng.Close()

	var store *storage.Multi
	if !analyzeNoSave {
		store, err = storage.New(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("create storage: %w", err)
		}
		defer store.Close()
		eng.SetStore(store)
	}

	if analyzeAI || cfg.AI.Enabled {
		cfg.AI.Enabled = true
		eng.SetInsighter(ai.NewClient(&cfg.AI, logger))
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(logger)
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	// A previous run, if any, feeds the movement summary afterwards.
	var previous *types.Analysis
	if store != nil {
		if prev, err := store.Latest(ctx, query); err == nil {
			previous = prev
		}
	}

	stopProgress := startProgressDisplay(eng.Progress())

	start := time.Now()
	analysis, err := eng.Run(ctx, query)
	stopProgress()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if metrics != nil {
		metrics.RecordRun(analysis)
		if store != nil {
			metrics.AnalysesStored.Add(1)
		}
	}

	elapsed := time.Since(start)
	printAnalysisSummary(analysis, elapsed, cfg, store)

	if previous != nil {
		if diff := monitor.Compare(previous, analysis); diff.HasMovement() {
			fmt.Printf("\n%s\n", diff.Markdown())
		}
	}

	if analyzeReports != "" {
		if err := renderReports(analysis, analyzeReports, cfg.Storage.OutputDir); err != nil {
			return err
		}
	}

	if analyzeBlog {
		gen := blog.New(&cfg.Blog, logger)
		md, err := gen.Generate(analysis)
		if err != nil {
			return fmt.Errorf("generate blog: %w", err)
		}
		path := filepath.Join(cfg.Blog.OutputDir, gen.Filename(analysis))
		if err := writeArtifact(path, []byte(md)); err != nil {
			return err
		}
		fmt.Printf("   Blog:      %s (%d words)\n", path, len(strings.Fields(md)))
	}

	return nil
}

// startProgressDisplay renders progress events on one terminal line.
// The returned func stops the display and clears the line.
func startProgressDisplay(events <-chan types.ProgressEvent) func() {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		for {
			select {
			case ev := <-events:
				fmt.Printf("\r   %-9s %3d%%  %-50s", ev.Stage, ev.Percent, ev.Message)
			case <-done:
				fmt.Printf("\r%s\r", strings.Repeat(" ", 70))
				return
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func printAnalysisSummary(a *types.Analysis, elapsed time.Duration, cfg *config.Config, store *storage.Multi) {
	high, medium, low, failed := 0, 0, 0, 0
	for i := range a.Results {
		if a.Results[i].Failed() {
			failed++
			continue
		}
		switch {
		case a.Results[i].SEOScore >= 80:
			high++
		case a.Results[i].SEOScore >= 60:
			medium++
		default:
			low++
		}
	}

	fmt.Printf("\n✅ Analysis complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Query:     %s (via %s)\n", a.Query, a.Source)
	fmt.Printf("   Pages:     %d analyzed of %d requested", a.Analyzed, a.Requested)
	if failed > 0 {
		fmt.Printf(" (%d failed)", failed)
	}
	fmt.Println()
	fmt.Printf("   Avg score: %d (high %d, medium %d, low %d)\n", a.Summary.AvgSEOScore, high, medium, low)

	if len(a.Results) > 0 && !a.Results[0].Failed() {
		top := &a.Results[0]
		fmt.Printf("   Top:       %s (score %d, %d words)\n",
			types.NormalizeHost(top.URL), top.SEOScore, top.WordCount)
	}
	if store != nil {
		fmt.Printf("   Saved:     %s (%s)\n", cfg.Storage.OutputDir, strings.Join(store.Backends(), ", "))
	}
	if a.Insights != "" {
		fmt.Printf("\n--- AI Insights ---\n\n%s\n", a.Insights)
	}
}

// renderReports writes the requested report formats next to the
// stored analyses.
func renderReports(a *types.Analysis, formats, outputDir string) error {
	rc := report.NewRenderContext(a)

	for _, format := range strings.Split(formats, ",") {
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
			data, ext = []byte(report.Markdown(a)), "md"
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
		fmt.Printf("   Report:    %s\n", path)
	}
	return nil
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// applyAnalyzeOverrides applies command-line flag values to the config.
func applyAnalyzeOverrides(cfg *config.Config) {
	if analyzeResults > 0 {
		cfg.Search.MaxResults = analyzeResults
	}
	if analyzeSources != "" {
		var sources []string
		for _, s := range strings.Split(analyzeSources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sources = append(sources, s)
			}
		}
		cfg.Search.Sources = sources
	}
	if analyzeOutput != "" {
		cfg.Storage.OutputDir = analyzeOutput
		cfg.Blog.OutputDir = analyzeOutput
	}
	if analyzeFetcher != "" {
		cfg.Fetcher.Type = strings.ToLower(analyzeFetcher)
	}
}
