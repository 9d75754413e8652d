package report

import (
	"strings"
	"testing"
	"time"

	"github.com/serpscope/serpscope/internal/types"
)

func sampleAnalysis() *types.Analysis {
	pages := []types.ScoredPage{
		{
			PageMetrics: types.PageMetrics{
				URL:                "https://alpha.example.com/guide",
				Title:              "The Complete Guide to Ergonomic Desks and Chairs",
				Description:        strings.Repeat("d", 155),
				WordCount:          2100,
				H1Count:            1,
				H2Count:            6,
				H3Count:            9,
				InternalLinksCount: 14,
				ExternalLinksCount: 5,
				ImagesCount:        8,
				ImagesWithAltCount: 8,
				SchemaCount:        2,
				SchemaTypes:        []string{"Article", "BreadcrumbList"},
			},
			Position:          2,
			SEOScore:          96,
			AltTextPercentage: 100,
		},
		{
			PageMetrics: types.PageMetrics{
				URL:       "https://beta.example.com/",
				Title:     "Beta",
				WordCount: 450,
				H1Count:   2,
			},
			Position:          1,
			SEOScore:          44,
			AltTextPercentage: 0,
		},
		{
			PageMetrics: types.PageMetrics{
				URL:   "https://down.example.com/page",
				Error: "fetch timeout",
			},
			Position:          3,
			SEOScore:          0,
			AltTextPercentage: 0,
		},
	}

	top := pages[0]
	return &types.Analysis{
		Query:        "ergonomic desk",
		Timestamp:    time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		Source:       "duckduckgo",
		Requested:    3,
		SerpReturned: 3,
		Analyzed:     3,
		Results:      pages,
		Summary: types.AggregateSummary{
			AvgWordCount:         850,
			AvgH1Count:           1.0,
			AvgInternalLinks:     5,
			AvgExternalLinks:     2,
			AvgImagesCount:       3,
			AvgAltTextPercentage: 33,
			AvgSchemaCount:       0.7,
			AvgSEOScore:          47,
		},
		Recommendations: types.Recommendations{
			TargetWordCount: 1020,
			TopResult:       &top,
			Advice: []string{
				"Aim for at least 10 internal links to related content.",
			},
		},
	}
}

// --- Markdown ---

func TestMarkdownHeader(t *testing.T) {
	md := Markdown(sampleAnalysis())

	for _, want := range []string{
		"# Detailed SEO Comparative Analysis for 'ergonomic desk'",
		"Query: ergonomic desk",
		"Date: 2025-03-14 09:30:00",
		"Source: duckduckgo | Pages analyzed: 3 of 3 returned",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownSections(t *testing.T) {
	md := Markdown(sampleAnalysis())

	for _, section := range []string{
		"## Executive Summary",
		"## Ranked Comparison",
		"## Comparison by SEO Factor",
		"## Per-Page Findings",
		"## Competitive Gap Analysis",
		"## Recommendations",
	} {
		if !strings.Contains(md, section) {
			t.Errorf("markdown missing section %q", section)
		}
	}
	if strings.Contains(md, "## AI Insights") {
		t.Error("insights section rendered without insights")
	}
}

func TestMarkdownRankedRows(t *testing.T) {
	md := Markdown(sampleAnalysis())

	// Rank order is the Results order; SERP position is reported
	// alongside, not recomputed.
	first := strings.Index(md, "| 1 | 2 | The Complete Guide")
	second := strings.Index(md, "| 2 | 1 | Beta")
	if first < 0 || second < 0 || first > second {
		t.Errorf("ranked rows missing or out of order (first=%d second=%d)", first, second)
	}
}

func TestMarkdownFailedPage(t *testing.T) {
	md := Markdown(sampleAnalysis())
	if !strings.Contains(md, "Fetch failed: fetch timeout") {
		t.Error("failed page finding not rendered")
	}
	if !strings.Contains(md, "pages failed to fetch and count as zeros") {
		t.Error("summary does not mention the failed page")
	}
}

func TestMarkdownRecommendations(t *testing.T) {
	md := Markdown(sampleAnalysis())
	if !strings.Contains(md, "Target word count: **1020**") {
		t.Error("target word count missing")
	}
	if !strings.Contains(md, "alpha.example.com at 2100 words") {
		t.Error("deepest competitor missing")
	}
}

func TestMarkdownInsights(t *testing.T) {
	a := sampleAnalysis()
	a.Insights = "The field splits into commerce and reference pages."
	md := Markdown(a)
	if !strings.Contains(md, "## AI Insights") {
		t.Error("insights section missing")
	}
	if !strings.Contains(md, a.Insights) {
		t.Error("insights text missing")
	}
}

func TestMarkdownEmptyAnalysis(t *testing.T) {
	a := &types.Analysis{Query: "nothing", Timestamp: time.Now()}
	md := Markdown(a)
	if !strings.Contains(md, "No pages were analyzed") {
		t.Error("empty analysis not reported")
	}
}

// --- Findings ---

func TestFindingsThresholds(t *testing.T) {
	tests := []struct {
		name string
		m    types.PageMetrics
		want string
	}{
		{"ideal title", types.PageMetrics{Title: strings.Repeat("x", 55)}, "50-60 character sweet spot"},
		{"near title", types.PageMetrics{Title: strings.Repeat("x", 45)}, "close to the 50-60"},
		{"no title", types.PageMetrics{}, "No title tag."},
		{"single h1", types.PageMetrics{H1Count: 1}, "Single H1"},
		{"many h1", types.PageMetrics{H1Count: 3}, "3 H1 headings"},
		{"deep content", types.PageMetrics{WordCount: 1500}, "Strong content depth at 1500 words"},
		{"thin content", types.PageMetrics{WordCount: 120}, "Thin content at 120 words"},
		{"full alt", types.PageMetrics{ImagesCount: 4, ImagesWithAltCount: 4}, "All 4 images carry alt text"},
		{"partial alt", types.PageMetrics{ImagesCount: 4, ImagesWithAltCount: 3}, "3 of 4 images carry alt text (75%)"},
		{"schema", types.PageMetrics{SchemaCount: 2, SchemaTypes: []string{"Product", "FAQ"}}, "Product, FAQ"},
		{"no schema", types.PageMetrics{}, "No structured data."},
		{"healthy links", types.PageMetrics{InternalLinksCount: 15}, "15 internal links, a healthy count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := strings.Join(Findings(&tt.m), "\n")
			if !strings.Contains(findings, tt.want) {
				t.Errorf("findings = %q, want substring %q", findings, tt.want)
			}
		})
	}
}

func TestFindingsErrorShortCircuits(t *testing.T) {
	m := types.PageMetrics{URL: "https://x.test", Error: "connection refused"}
	findings := Findings(&m)
	if len(findings) != 1 {
		t.Fatalf("Findings() returned %d entries, want 1", len(findings))
	}
	if !strings.Contains(findings[0], "connection refused") {
		t.Errorf("finding = %q, want the fetch error", findings[0])
	}
}

// --- RenderContext ---

func TestNewRenderContextCharts(t *testing.T) {
	rc := NewRenderContext(sampleAnalysis())

	if len(rc.Charts) != 2 {
		t.Fatalf("charts = %d, want 2", len(rc.Charts))
	}
	scores := rc.Charts[0]
	if scores.ID != "scores" || len(scores.Values) != 3 {
		t.Errorf("scores chart = %q with %d values, want \"scores\" with 3", scores.ID, len(scores.Values))
	}
	if scores.Values[0] != 96 {
		t.Errorf("first score value = %v, want 96", scores.Values[0])
	}
	if rc.Charts[1].Values[0] != 2100 {
		t.Errorf("first word value = %v, want 2100", rc.Charts[1].Values[0])
	}
}

func TestRenderContextsIndependent(t *testing.T) {
	a := sampleAnalysis()
	rc1 := NewRenderContext(a)
	rc2 := NewRenderContext(a)

	rc1.Charts[0].Values[0] = -1
	if rc2.Charts[0].Values[0] == -1 {
		t.Error("render contexts share chart state")
	}
}

// --- HTML ---

func TestHTMLRendering(t *testing.T) {
	rc := NewRenderContext(sampleAnalysis())
	out, err := HTML(rc)
	if err != nil {
		t.Fatalf("HTML() error: %v", err)
	}

	for _, want := range []string{
		"SEO Comparative Analysis: ergonomic desk",
		"chart-scores",
		"The Complete Guide to Ergonomic Desks and Chairs",
		"https://alpha.example.com/guide",
		"Target word count: 1020",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestHTMLEscapesQuery(t *testing.T) {
	a := sampleAnalysis()
	a.Query = `<script>alert("x")</script>`
	out, err := HTML(NewRenderContext(a))
	if err != nil {
		t.Fatalf("HTML() error: %v", err)
	}
	if strings.Contains(out, `<script>alert`) {
		t.Error("query not escaped in html output")
	}
}

// --- PDF ---

func TestPDFRendering(t *testing.T) {
	rc := NewRenderContext(sampleAnalysis())
	out, err := PDF(rc)
	if err != nil {
		t.Fatalf("PDF() error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("PDF() returned no bytes")
	}
	if !strings.HasPrefix(string(out[:5]), "%PDF-") {
		t.Errorf("output does not start with a PDF header: %q", out[:5])
	}
}

// --- Helpers ---

func TestFilename(t *testing.T) {
	a := sampleAnalysis()
	got := Filename(a, "md")
	want := "seo_comparative_analysis_ergonomic_desk_20250314_093000.md"
	if got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}

func TestSplitTableRow(t *testing.T) {
	if cells := splitTableRow("|---:|---|"); cells != nil {
		t.Errorf("separator row parsed as cells: %v", cells)
	}
	cells := splitTableRow("| 1 | alpha | 96 |")
	if len(cells) != 3 || cells[1] != "alpha" {
		t.Errorf("splitTableRow() = %v, want [1 alpha 96]", cells)
	}
}

// --- Benchmarks ---

func BenchmarkMarkdown(b *testing.B) {
	a := sampleAnalysis()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Markdown(a)
	}
}

func BenchmarkHTML(b *testing.B) {
	rc := NewRenderContext(sampleAnalysis())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = HTML(rc)
	}
}
