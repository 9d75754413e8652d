package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrTimeout indicates a fetch exceeded its deadline.
	ErrTimeout = errors.New("request timeout")

	// ErrMaxRetries indicates the retry budget was exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")

	// ErrBlocked indicates a SERP source returned a CAPTCHA or other
	// bot-detection page instead of results.
	ErrBlocked = errors.New("blocked by target")

	// ErrEmptyQuery indicates an analysis was requested for a blank query.
	ErrEmptyQuery = errors.New("empty query")

	// ErrNoResults indicates a SERP source answered but produced zero
	// organic results.
	ErrNoResults = errors.New("no search results")

	// ErrAllSourcesFailed indicates every configured SERP source in the
	// fallback chain failed or was blocked.
	ErrAllSourcesFailed = errors.New("all search sources failed")

	// ErrEmptyAnalysis indicates an operation needs at least one
	// analyzed page and got none.
	ErrEmptyAnalysis = errors.New("analysis contains no results")

	// ErrNotFound indicates a stored analysis does not exist.
	ErrNotFound = errors.New("analysis not found")

	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// SearchError wraps a failure from one SERP source so the fallback chain
// can report which source failed for which query.
type SearchError struct {
	Source string
	Query  string
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q via %s: %v", e.Query, e.Source, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// NewSearchError builds a SearchError.
func NewSearchError(source, query string, err error) *SearchError {
	return &SearchError{Source: source, Query: query, Err: err}
}

// FetchError wraps a page-fetch failure with retry metadata.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error

	// Retryable marks transient failures worth another attempt.
	Retryable bool

	// RetryAfter is a server-requested backoff, zero when absent.
	RetryAfter time.Duration
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError builds a FetchError without a status code.
func NewFetchError(url string, err error, retryable bool) *FetchError {
	return &FetchError{URL: url, Err: err, Retryable: retryable}
}

// ExtractError wraps a parse failure for one fetched page.
type ExtractError struct {
	URL string
	Err error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// StorageError wraps a persistence failure with the backend and operation.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
