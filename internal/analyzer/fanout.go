package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/serpscope/serpscope/internal/extract"
	"github.com/serpscope/serpscope/internal/fetcher"
	"github.com/serpscope/serpscope/internal/types"
)

// fetchAll fans out over the SERP results with a bounded worker pool.
// Each worker writes into its own index, so the returned slice is in
// original SERP order no matter which fetch finishes first. Every input
// produces a record; failures are zeroed records with the error inline.
func (a *Analyzer) fetchAll(ctx context.Context, serpResults []types.SerpResult) []types.PageMetrics {
	metrics := make([]types.PageMetrics, len(serpResults))
	if len(serpResults) == 0 {
		return metrics
	}

	workers := a.cfg.Fetcher.Concurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(serpResults) {
		workers = len(serpResults)
	}

	total := len(serpResults)
	a.emit(types.StageFetching, 10, fmt.Sprintf("fetching %d pages", total), 0, total)

	jobs := make(chan int)
	var completed atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.stats.ActiveWorkers.Add(1)
			defer a.stats.ActiveWorkers.Add(-1)

			for i := range jobs {
				metrics[i] = a.fetchOne(ctx, serpResults[i])
				done := int(completed.Add(1))
				a.emit(types.StageFetching, 10+70*done/total, serpResults[i].URL, done, total)
			}
		}()
	}

enqueue:
	for i := range serpResults {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()

	return metrics
}

// fetchOne fetches and extracts a single page, retrying transient
// failures within the request's retry budget. 429 backoffs honor the
// server's Retry-After; other retries use a jittered delay.
func (a *Analyzer) fetchOne(ctx context.Context, sr types.SerpResult) types.PageMetrics {
	req, err := types.NewPageRequest(sr.URL, sr.Position)
	if err != nil {
		a.stats.PagesFailed.Add(1)
		return extract.Failure(sr.URL, err)
	}
	req.MaxRetries = a.cfg.Fetcher.MaxRetries

	f := a.getFetcher()
	var lastErr error
	for {
		resp, err := a.fetchWithTimeout(ctx, f, req)
		if err == nil {
			a.stats.PagesFetched.Add(1)
			a.stats.BytesDownloaded.Add(int64(len(resp.Body)))
			return a.extractor.Page(resp)
		}
		lastErr = err

		var fetchErr *types.FetchError
		retryable := errors.As(err, &fetchErr) && fetchErr.Retryable
		if !retryable || req.RetryCount >= req.MaxRetries || ctx.Err() != nil {
			break
		}
		req.RetryCount++
		a.stats.PagesRetried.Add(1)

		backoff := fetcher.RandomDelay(a.cfg.Fetcher.RetryDelay)
		if fetchErr.RetryAfter > 0 {
			backoff = fetchErr.RetryAfter
		}
		a.logger.Warn("retrying page",
			"url", req.URLString(),
			"retry", req.RetryCount,
			"max_retries", req.MaxRetries,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
		}
	}

	a.stats.PagesFailed.Add(1)
	a.logger.Warn("page failed",
		"url", sr.URL,
		"position", sr.Position,
		"retries", req.RetryCount,
		"error", lastErr,
	)
	return extract.Failure(sr.URL, lastErr)
}

func (a *Analyzer) fetchWithTimeout(ctx context.Context, f fetcher.Fetcher, req *types.PageRequest) (*types.PageResponse, error) {
	timeout := a.cfg.Fetcher.RequestTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout <= 0 {
		return f.Fetch(ctx, req)
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return f.Fetch(fetchCtx, req)
}
