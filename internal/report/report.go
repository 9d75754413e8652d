// Package report renders a completed analysis as a comparative
// markdown document, a styled HTML page, or a PDF. Rendering is
// derivation only: scores, ranks, and recommendations come in on the
// analysis and are never recomputed here.
package report

import (
	"fmt"
	"time"

	"github.com/serpscope/serpscope/internal/types"
)

// Chart is one bar-chart payload serialized into the HTML view.
type Chart struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Accent string    `json:"accent"`
}

// RenderContext carries the transient state of one render call: the
// analysis, the generation timestamp, and the chart payloads. Every
// render builds its own context and discards it afterwards; nothing
// is shared between calls.
type RenderContext struct {
	Analysis    *types.Analysis
	GeneratedAt time.Time
	Charts      []Chart
}

// NewRenderContext builds the context for one render of the analysis,
// including the chart payloads the HTML view embeds.
func NewRenderContext(a *types.Analysis) *RenderContext {
	rc := &RenderContext{
		Analysis:    a,
		GeneratedAt: time.Now(),
	}

	labels := make([]string, 0, len(a.Results))
	scores := make([]float64, 0, len(a.Results))
	words := make([]float64, 0, len(a.Results))
	for _, r := range a.Results {
		labels = append(labels, displayHost(r.URL, r.Position))
		scores = append(scores, float64(r.SEOScore))
		words = append(words, float64(r.WordCount))
	}

	rc.Charts = []Chart{
		{ID: "scores", Title: "SEO score by page", Labels: labels, Values: scores, Accent: "#4f8cff"},
		{ID: "words", Title: "Word count by page", Labels: labels, Values: words, Accent: "#3fb68b"},
	}
	return rc
}

// Filename returns the conventional artifact name for the analysis,
// e.g. seo_comparative_analysis_coffee_mugs_20250102_150405.md.
func Filename(a *types.Analysis, ext string) string {
	return fmt.Sprintf("seo_comparative_analysis_%s_%s.%s",
		a.Slug(), a.Timestamp.Format("20060102_150405"), ext)
}

func displayHost(rawURL string, position int) string {
	host := types.NormalizeHost(rawURL)
	if host == "" {
		host = fmt.Sprintf("result %d", position)
	}
	return host
}
