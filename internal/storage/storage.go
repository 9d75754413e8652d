// Package storage persists completed analyses. Backends share the Store
// interface; those that can read analyses back also implement Reader.
// The SQLite backend stores raw metrics only and recomputes scores on
// load; the file backend round-trips the full analysis document.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/types"
)

// Store is the interface for all storage backends.
type Store interface {
	// Save persists one completed analysis.
	Save(ctx context.Context, a *types.Analysis) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Reader loads stored analyses. Write-only backends (S3 archival) do not
// implement it.
type Reader interface {
	// Latest returns the most recent analysis for a query, or
	// types.ErrNotFound.
	Latest(ctx context.Context, query string) (*types.Analysis, error)

	// History returns up to limit analyses for a query, newest first.
	History(ctx context.Context, query string, limit int) ([]*types.Analysis, error)

	// List returns one entry per stored analysis, newest first.
	List(ctx context.Context) ([]Entry, error)
}

// Entry is a summary line for one stored analysis.
type Entry struct {
	Query     string    `json:"query"`
	Slug      string    `json:"slug"`
	Timestamp time.Time `json:"timestamp"`
	Pages     int       `json:"pages"`
	AvgScore  int       `json:"avg_score"`
}

// New builds the configured backends wrapped in a Multi. With no
// backends configured the Multi is inert: saves no-op and reads find
// nothing.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Multi, error) {
	backends := cfg.Storage.Backends

	stores := make([]Store, 0, len(backends))
	fail := func(err error) (*Multi, error) {
		for _, s := range stores {
			_ = s.Close()
		}
		return nil, err
	}

	for _, name := range backends {
		var (
			s   Store
			err error
		)
		switch name {
		case "file":
			s, err = NewFileStore(&cfg.Storage, logger)
		case "sqlite":
			s, err = NewSQLiteStore(cfg.Storage.SQLitePath, logger)
		case "mongo":
			s, err = NewMongoStore(ctx, &cfg.Storage, logger)
		case "s3":
			s, err = NewS3Store(ctx, &cfg.Storage, logger)
		default:
			return fail(fmt.Errorf("unknown storage backend %q", name))
		}
		if err != nil {
			return fail(fmt.Errorf("building %s backend: %w", name, err))
		}
		stores = append(stores, s)
	}

	return NewMulti(stores, logger), nil
}
