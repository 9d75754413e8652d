// Package normalize sanitizes extracted page metrics before scoring.
// Records are adjusted in place and never dropped: a failed page stays
// in the set as a zeroed record with its error string attached.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/serpscope/serpscope/internal/types"
)

// Normalizer adjusts one metrics record in place.
type Normalizer interface {
	// Name returns the normalizer's identifier.
	Name() string

	// Normalize mutates the record. It must not drop it.
	Normalize(m *types.PageMetrics) error
}

// Chain runs normalizers in registration order.
type Chain struct {
	normalizers []Normalizer
	logger      *slog.Logger
}

// NewChain creates an empty Chain.
func NewChain(logger *slog.Logger) *Chain {
	return &Chain{
		logger: logger.With("component", "normalize"),
	}
}

// DefaultChain returns a Chain with the standard normalizers in the
// order scoring expects them.
func DefaultChain(logger *slog.Logger) *Chain {
	c := NewChain(logger)
	c.Use(&Trim{})
	c.Use(&ZeroFloor{})
	c.Use(&AltClamp{})
	c.Use(&SchemaReconcile{})
	c.Use(&ErrorZero{})
	return c
}

// Use appends a normalizer to the chain.
func (c *Chain) Use(n Normalizer) {
	c.normalizers = append(c.normalizers, n)
	c.logger.Debug("normalizer added", "name", n.Name(), "position", len(c.normalizers))
}

// Apply runs the record through every normalizer in order.
func (c *Chain) Apply(m *types.PageMetrics) error {
	for _, n := range c.normalizers {
		if err := n.Normalize(m); err != nil {
			return fmt.Errorf("normalize %s: %w", n.Name(), err)
		}
	}
	return nil
}

// ApplyAll normalizes a whole result set. A normalizer failure is
// absorbed into the record as an inline error, keeping the set intact.
func (c *Chain) ApplyAll(metrics []types.PageMetrics) {
	for i := range metrics {
		if err := c.Apply(&metrics[i]); err != nil {
			c.logger.Warn("normalize failed", "url", metrics[i].URL, "error", err)
			if metrics[i].Error == "" {
				metrics[i].Error = err.Error()
			}
		}
	}
}

// Len returns the number of normalizers in the chain.
func (c *Chain) Len() int {
	return len(c.normalizers)
}

// --- Built-in Normalizers ---

// Trim strips surrounding whitespace from textual fields.
type Trim struct{}

func (*Trim) Name() string { return "trim" }

func (*Trim) Normalize(m *types.PageMetrics) error {
	m.URL = strings.TrimSpace(m.URL)
	m.Title = strings.TrimSpace(m.Title)
	m.Description = strings.TrimSpace(m.Description)
	m.Error = strings.TrimSpace(m.Error)
	return nil
}

// ZeroFloor replaces negative counts with zero. Missing or malformed
// numerics always score as zero, never as an error.
type ZeroFloor struct{}

func (*ZeroFloor) Name() string { return "zero_floor" }

func (*ZeroFloor) Normalize(m *types.PageMetrics) error {
	for _, p := range []*int{
		&m.WordCount, &m.H1Count, &m.H2Count, &m.H3Count,
		&m.InternalLinksCount, &m.ExternalLinksCount,
		&m.ImagesCount, &m.ImagesWithAltCount, &m.SchemaCount,
	} {
		if *p < 0 {
			*p = 0
		}
	}
	if m.PageSizeKB < 0 {
		m.PageSizeKB = 0
	}
	if m.LoadTimeMS < 0 {
		m.LoadTimeMS = 0
	}
	return nil
}

// AltClamp caps images-with-alt at the total image count so the alt
// ratio never exceeds 100%.
type AltClamp struct{}

func (*AltClamp) Name() string { return "alt_clamp" }

func (*AltClamp) Normalize(m *types.PageMetrics) error {
	if m.ImagesWithAltCount > m.ImagesCount {
		m.ImagesWithAltCount = m.ImagesCount
	}
	return nil
}

// SchemaReconcile dedups the schema type list case-insensitively and,
// when a list is present, makes the count match it.
type SchemaReconcile struct{}

func (*SchemaReconcile) Name() string { return "schema_reconcile" }

func (*SchemaReconcile) Normalize(m *types.PageMetrics) error {
	if len(m.SchemaTypes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(m.SchemaTypes))
	deduped := m.SchemaTypes[:0]
	for _, t := range m.SchemaTypes {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, t)
	}
	m.SchemaTypes = deduped
	m.SchemaCount = len(deduped)
	return nil
}

// ErrorZero zeroes every metric on records carrying an error so partial
// extractions cannot leak into aggregates.
type ErrorZero struct{}

func (*ErrorZero) Name() string { return "error_zero" }

func (*ErrorZero) Normalize(m *types.PageMetrics) error {
	if m.Error == "" {
		return nil
	}
	m.Title = ""
	m.Description = ""
	m.WordCount = 0
	m.H1Count = 0
	m.H2Count = 0
	m.H3Count = 0
	m.InternalLinksCount = 0
	m.ExternalLinksCount = 0
	m.ImagesCount = 0
	m.ImagesWithAltCount = 0
	m.SchemaCount = 0
	m.SchemaTypes = nil
	m.ContentPreview = ""
	return nil
}
