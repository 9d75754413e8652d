package storage

import (
	"context"
	"log/slog"

	"github.com/serpscope/serpscope/internal/types"
)

// Multi fans writes out to every backend and serves reads from the
// first backend that can read.
type Multi struct {
	stores []Store
	reader Reader
	logger *slog.Logger
}

// NewMulti wraps the given backends. The first one implementing Reader
// becomes the read source.
func NewMulti(stores []Store, logger *slog.Logger) *Multi {
	m := &Multi{
		stores: stores,
		logger: logger.With("component", "storage"),
	}
	for _, s := range stores {
		if r, ok := s.(Reader); ok {
			m.reader = r
			break
		}
	}
	return m
}

func (m *Multi) Name() string { return "multi" }

// Backends returns the wrapped backend names.
func (m *Multi) Backends() []string {
	names := make([]string, len(m.stores))
	for i, s := range m.stores {
		names[i] = s.Name()
	}
	return names
}

// Save writes to every backend. All backends are attempted; the first
// error is returned.
func (m *Multi) Save(ctx context.Context, a *types.Analysis) error {
	var firstErr error
	for _, s := range m.stores {
		if err := s.Save(ctx, a); err != nil {
			m.logger.Error("backend save failed", "backend", s.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Multi) Close() error {
	var firstErr error
	for _, s := range m.stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Latest reads from the first readable backend.
func (m *Multi) Latest(ctx context.Context, query string) (*types.Analysis, error) {
	if m.reader == nil {
		return nil, types.ErrNotFound
	}
	return m.reader.Latest(ctx, query)
}

// History reads from the first readable backend.
func (m *Multi) History(ctx context.Context, query string, limit int) ([]*types.Analysis, error) {
	if m.reader == nil {
		return nil, nil
	}
	return m.reader.History(ctx, query, limit)
}

// List reads from the first readable backend.
func (m *Multi) List(ctx context.Context) ([]Entry, error) {
	if m.reader == nil {
		return nil, nil
	}
	return m.reader.List(ctx)
}
