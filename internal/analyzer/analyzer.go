// Package analyzer orchestrates one query analysis end to end: SERP
// search, bounded fetch fan-out over the result URLs, extraction,
// normalization, scoring, and recommendations. Each Run is an
// independent unit of work; concurrent runs share nothing but counters.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/extract"
	"github.com/serpscope/serpscope/internal/fetcher"
	"github.com/serpscope/serpscope/internal/normalize"
	"github.com/serpscope/serpscope/internal/recommend"
	"github.com/serpscope/serpscope/internal/scoring"
	"github.com/serpscope/serpscope/internal/serp"
	"github.com/serpscope/serpscope/internal/types"
)

// Searcher produces organic results for a query. *serp.Chain implements it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.SerpResult, string, error)
}

// Store persists completed analyses. Save failures are logged, never fatal.
type Store interface {
	Save(ctx context.Context, a *types.Analysis) error
}

// Insighter contributes optional written commentary on a completed
// analysis. Failures degrade to the deterministic outputs only.
type Insighter interface {
	Insights(ctx context.Context, a *types.Analysis) (string, error)
}

// Stats tracks analyzer counters across runs.
type Stats struct {
	SearchesRun     atomic.Int64
	PagesFetched    atomic.Int64
	PagesFailed     atomic.Int64
	PagesRetried    atomic.Int64
	AnalysesDone    atomic.Int64
	AnalysesFailed  atomic.Int64
	BytesDownloaded atomic.Int64
	ActiveWorkers   atomic.Int32
	StartTime       time.Time
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"searches_run":     s.SearchesRun.Load(),
		"pages_fetched":    s.PagesFetched.Load(),
		"pages_failed":     s.PagesFailed.Load(),
		"pages_retried":    s.PagesRetried.Load(),
		"analyses_done":    s.AnalysesDone.Load(),
		"analyses_failed":  s.AnalysesFailed.Load(),
		"bytes_downloaded": s.BytesDownloaded.Load(),
		"active_workers":   s.ActiveWorkers.Load(),
		"uptime":           time.Since(s.StartTime).String(),
	}
}

// Analyzer runs the analysis pipeline for queries.
type Analyzer struct {
	cfg       *config.Config
	logger    *slog.Logger
	searcher  Searcher
	fetcher   fetcher.Fetcher
	extractor *extract.Extractor
	chain     *normalize.Chain
	store     Store
	insighter Insighter

	stats    *Stats
	progress chan types.ProgressEvent
	mu       sync.RWMutex
}

// New creates an Analyzer with the configured SERP chain and fetcher.
func New(cfg *config.Config, logger *slog.Logger) (*Analyzer, error) {
	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building fetcher: %w", err)
	}
	return &Analyzer{
		cfg:       cfg,
		logger:    logger.With("component", "analyzer"),
		searcher:  serp.New(cfg, logger),
		fetcher:   f,
		extractor: extract.New(&cfg.Analysis, logger),
		chain:     normalize.DefaultChain(logger),
		stats:     &Stats{StartTime: time.Now()},
		progress:  make(chan types.ProgressEvent, 64),
	}, nil
}

// SetSearcher replaces the SERP source chain.
func (a *Analyzer) SetSearcher(s Searcher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.searcher = s
}

// SetFetcher replaces the page fetcher.
func (a *Analyzer) SetFetcher(f fetcher.Fetcher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetcher = f
}

// SetStore attaches a persistence backend. Without one, runs are not saved.
func (a *Analyzer) SetStore(s Store) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.store = s
}

// SetInsighter attaches the optional commentary generator.
func (a *Analyzer) SetInsighter(i Insighter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.insighter = i
}

// Stats returns the analyzer's counters.
func (a *Analyzer) Stats() *Stats { return a.stats }

// Progress returns the event channel. Events are dropped, not queued,
// when the consumer lags.
func (a *Analyzer) Progress() <-chan types.ProgressEvent { return a.progress }

// Close releases the fetcher.
func (a *Analyzer) Close() error {
	return a.getFetcher().Close()
}

// Run executes the full pipeline for one query and returns the completed
// analysis. Per-page failures become zeroed records inside the analysis;
// only search failures and cancellation fail the run itself.
func (a *Analyzer) Run(ctx context.Context, query string) (*types.Analysis, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.ErrEmptyQuery
	}

	started := time.Now()
	limit := a.cfg.Search.MaxResults

	a.emit(types.StageSearching, 5, fmt.Sprintf("searching %q", query), 0, 0)
	a.stats.SearchesRun.Add(1)

	serpResults, source, err := a.getSearcher().Search(ctx, query, limit)
	if err != nil {
		a.stats.AnalysesFailed.Add(1)
		a.emit(types.StageFailed, 100, err.Error(), 0, 0)
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	a.logger.Info("serp results",
		"query", query,
		"source", source,
		"results", len(serpResults),
	)

	metrics := a.fetchAll(ctx, serpResults)
	if err := ctx.Err(); err != nil {
		a.stats.AnalysesFailed.Add(1)
		a.emit(types.StageFailed, 100, "canceled", 0, 0)
		return nil, err
	}

	a.chain.ApplyAll(metrics)

	a.emit(types.StageScoring, 85, "scoring pages", len(metrics), len(metrics))
	scored := scoring.ScoreAll(metrics)
	summary := scoring.Summarize(scored)

	analysis := &types.Analysis{
		Query:           query,
		Timestamp:       started.UTC(),
		Source:          source,
		Requested:       limit,
		SerpReturned:    len(serpResults),
		Analyzed:        len(scored),
		Serp:            serpResults,
		Results:         scored,
		Summary:         summary,
		Recommendations: recommend.Build(scored, summary),
	}

	a.addInsights(ctx, analysis)

	if store := a.getStore(); store != nil {
		a.emit(types.StageSaving, 90, "saving analysis", 0, 0)
		if err := store.Save(ctx, analysis); err != nil {
			a.logger.Error("save failed", "query", query, "error", err)
		}
	}

	analysis.Elapsed = time.Since(started)
	a.stats.AnalysesDone.Add(1)
	a.emit(types.StageDone, 100,
		fmt.Sprintf("analyzed %d of %d pages", analysis.Analyzed, analysis.SerpReturned),
		analysis.Analyzed, analysis.SerpReturned)

	a.logger.Info("analysis complete",
		"query", query,
		"source", source,
		"pages", analysis.Analyzed,
		"avg_score", summary.AvgSEOScore,
		"elapsed", analysis.Elapsed,
	)
	return analysis, nil
}

func (a *Analyzer) addInsights(ctx context.Context, analysis *types.Analysis) {
	ins := a.getInsighter()
	if ins == nil {
		return
	}
	text, err := ins.Insights(ctx, analysis)
	if err != nil {
		a.logger.Warn("insights unavailable", "query", analysis.Query, "error", err)
		return
	}
	analysis.Insights = text
}

// emit publishes a progress event without blocking.
func (a *Analyzer) emit(stage string, percent int, message string, completed, total int) {
	ev := types.ProgressEvent{
		Stage:     stage,
		Percent:   percent,
		Message:   message,
		Completed: completed,
		Total:     total,
	}
	select {
	case a.progress <- ev:
	default:
	}
}

func (a *Analyzer) getSearcher() Searcher {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.searcher
}

func (a *Analyzer) getFetcher() fetcher.Fetcher {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fetcher
}

func (a *Analyzer) getStore() Store {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.store
}

func (a *Analyzer) getInsighter() Insighter {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.insighter
}
