package serp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/serpscope/serpscope/internal/types"
)

// Chain tries each source in order until one returns results. Results
// pass through Dedupe so downstream code never sees the same landing
// page twice.
type Chain struct {
	sources []Source
	logger  *slog.Logger
}

// NewChain builds a fallback chain over the given sources.
func NewChain(sources []Source, logger *slog.Logger) *Chain {
	return &Chain{
		sources: sources,
		logger:  logger.With("component", "search_chain"),
	}
}

// Sources returns the names of the configured sources in fallback order.
func (c *Chain) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// Search runs the fallback chain and returns the deduplicated results
// plus the name of the source that produced them. When every source
// fails the error wraps types.ErrAllSourcesFailed and carries each
// per-source failure.
func (c *Chain) Search(ctx context.Context, query string, limit int) ([]types.SerpResult, string, error) {
	if len(c.sources) == 0 {
		return nil, "", fmt.Errorf("no search sources configured: %w", types.ErrAllSourcesFailed)
	}

	var failures []error
	for _, src := range c.sources {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}

		results, err := src.Search(ctx, query, limit)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, types.ErrBlocked) {
				level = slog.LevelInfo // expected for scraped engines, the chain exists for this
			}
			c.logger.Log(ctx, level, "source failed, falling back",
				"source", src.Name(),
				"query", query,
				"error", err,
			)
			failures = append(failures, err)
			continue
		}

		deduped := Dedupe(results)
		if len(deduped) == 0 {
			failures = append(failures, types.NewSearchError(src.Name(), query, types.ErrNoResults))
			continue
		}

		c.logger.Info("search complete",
			"source", src.Name(),
			"query", query,
			"results", len(deduped),
		)
		return deduped, src.Name(), nil
	}

	return nil, "", fmt.Errorf("%w: %w", types.ErrAllSourcesFailed, errors.Join(failures...))
}
