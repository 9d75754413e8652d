package types

import (
	"strings"
	"time"
)

// SerpResult is a single organic result as returned by a SERP source,
// before the page behind it has been fetched.
type SerpResult struct {
	// Position is the 1-based rank in the original SERP order.
	// It is assigned once by the source and never recomputed.
	Position int `json:"position"`

	// URL is the landing page address.
	URL string `json:"url"`

	// Title is the result title as shown on the results page.
	Title string `json:"title"`

	// Snippet is the short description shown under the title.
	Snippet string `json:"snippet,omitempty"`
}

// PageMetrics holds the raw on-page metrics extracted from one fetched URL.
// When Error is non-empty the fetch or parse failed, the on-page metrics
// are zero (StatusCode may survive), and the record still participates in
// aggregates.
type PageMetrics struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`

	WordCount int `json:"word_count"`

	H1Count int `json:"h1_count"`
	H2Count int `json:"h2_count"`
	H3Count int `json:"h3_count"`

	InternalLinksCount int `json:"internal_links_count"`
	ExternalLinksCount int `json:"external_links_count"`

	ImagesCount        int `json:"images_count"`
	ImagesWithAltCount int `json:"images_with_alt_count"`

	// SchemaCount is the number of distinct schema.org types found
	// across JSON-LD, microdata, and RDFa markup.
	SchemaCount int      `json:"schema_count"`
	SchemaTypes []string `json:"schema_types,omitempty"`

	// ContentPreview is a short markdown excerpt of the main content.
	ContentPreview string `json:"content_preview,omitempty"`

	// Technical fields captured during the fetch.
	PageSizeKB float64 `json:"page_size_kb,omitempty"`
	LoadTimeMS int64   `json:"load_time_ms,omitempty"`
	StatusCode int     `json:"status_code,omitempty"`

	// Error records a per-page fetch/parse failure inline. The record
	// is never dropped from the result set.
	Error string `json:"error,omitempty"`
}

// Failed reports whether this record represents a failed fetch/parse.
func (m *PageMetrics) Failed() bool { return m.Error != "" }

// Host returns the lowercase hostname of the page URL, with any
// leading "www." stripped. Used for internal/external link decisions.
func (m *PageMetrics) Host() string {
	return NormalizeHost(m.URL)
}

// ScoredPage is a PageMetrics record with its derived, presentation-time
// values attached. Position comes from the original SERP order.
type ScoredPage struct {
	PageMetrics

	Position          int `json:"position"`
	SEOScore          int `json:"seo_score"`
	AltTextPercentage int `json:"alt_text_percentage"`
}

// AggregateSummary holds arithmetic means over every ScoredPage in a
// result set, error records included as zeros. Integer fields are
// rounded to the nearest integer; H1Count and SchemaCount keep one
// decimal place.
type AggregateSummary struct {
	AvgWordCount         int     `json:"avg_word_count"`
	AvgH1Count           float64 `json:"avg_h1_count"`
	AvgInternalLinks     int     `json:"avg_internal_links"`
	AvgExternalLinks     int     `json:"avg_external_links"`
	AvgImagesCount       int     `json:"avg_images_count"`
	AvgAltTextPercentage int     `json:"avg_alt_text_percentage"`
	AvgSchemaCount       float64 `json:"avg_schema_count"`
	AvgSEOScore          int     `json:"avg_seo_score"`
}

// Recommendations holds the derived thresholds for one result set.
// TopResult is chosen by maximum word count, not by score.
type Recommendations struct {
	TargetWordCount int `json:"target_word_count"`

	TopResult *ScoredPage `json:"top_result,omitempty"`

	// Advice contains the fixed textual thresholds. These echo the
	// scoring rubric and are not derived from the input set.
	Advice []string `json:"advice"`
}

// Analysis is one complete query execution: the SERP, the scored pages in
// rank order, the aggregate summary, and the derived recommendations.
// It is created once per run and treated as read-only afterwards.
type Analysis struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`

	// Source names the SERP source that served the organic results.
	Source string `json:"source"`

	Requested    int `json:"num_requested"`
	SerpReturned int `json:"num_returned_search"`
	Analyzed     int `json:"num_analyzed_pages"`

	// Serp is the organic result list as returned by the source, in
	// original order, before any page was fetched.
	Serp []SerpResult `json:"serp,omitempty"`

	// Results are in rank order: descending seo_score, ties broken by
	// ascending original position.
	Results []ScoredPage `json:"results"`

	Summary         AggregateSummary `json:"summary"`
	Recommendations Recommendations  `json:"recommendations"`

	// Insights is optional LLM-written commentary; empty unless the AI
	// integration is enabled.
	Insights string `json:"insights,omitempty"`

	Elapsed time.Duration `json:"elapsed_ms"`
}

// Slug returns a filesystem-safe form of the query for file naming.
func (a *Analysis) Slug() string {
	return SlugifyQuery(a.Query)
}

// SlugifyQuery lowercases a query and replaces runs of non-alphanumeric
// characters with single underscores.
func SlugifyQuery(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(query)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// NormalizeHost extracts a lowercase hostname from a raw URL and strips
// a leading "www.". Returns "" when the URL cannot be parsed.
func NormalizeHost(rawURL string) string {
	u := rawURL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.IndexAny(u, "/?#"); i >= 0 {
		u = u[:i]
	}
	if i := strings.Index(u, "@"); i >= 0 {
		u = u[i+1:]
	}
	if i := strings.Index(u, ":"); i >= 0 {
		u = u[:i]
	}
	u = strings.ToLower(strings.TrimSpace(u))
	return strings.TrimPrefix(u, "www.")
}
