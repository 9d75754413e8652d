package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/serpscope/serpscope/internal/scoring"
	"github.com/serpscope/serpscope/internal/types"
)

// Markdown renders the comparative report for one analysis. Sections
// follow the classic layout: executive summary, ranked comparison,
// factor comparison, per-page findings, gap analysis, recommendations,
// and optional written insights at the end.
func Markdown(a *types.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Detailed SEO Comparative Analysis for '%s'\n\n", a.Query)
	fmt.Fprintf(&b, "Query: %s\n\n", a.Query)
	fmt.Fprintf(&b, "Date: %s\n\n", a.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Source: %s | Pages analyzed: %d of %d returned\n\n",
		a.Source, a.Analyzed, a.SerpReturned)

	writeSummary(&b, a)
	writeRankedTable(&b, a)
	writeFactorComparison(&b, a)
	writeFindings(&b, a)
	writeGapAnalysis(&b, a)
	writeRecommendations(&b, a)

	if a.Insights != "" {
		b.WriteString("## AI Insights\n\n")
		b.WriteString(strings.TrimSpace(a.Insights))
		b.WriteString("\n")
	}

	return b.String()
}

func writeSummary(b *strings.Builder, a *types.Analysis) {
	b.WriteString("## Executive Summary\n\n")

	if len(a.Results) == 0 {
		b.WriteString("No pages were analyzed for this query.\n\n")
		return
	}

	high, medium, low, failed := bucketCounts(a.Results)
	fmt.Fprintf(b, "- Average SEO score is **%d/100** across %d pages (%d high, %d medium, %d low).\n",
		a.Summary.AvgSEOScore, len(a.Results), high, medium, low)
	fmt.Fprintf(b, "- Content depth averages %d words; the deepest page carries %d.\n",
		a.Summary.AvgWordCount, maxWordCount(a.Results))
	fmt.Fprintf(b, "- Structured data averages %.1f schema types per page; image alt coverage averages %d%%.\n",
		a.Summary.AvgSchemaCount, a.Summary.AvgAltTextPercentage)
	if failed > 0 {
		fmt.Fprintf(b, "- %d of %d pages failed to fetch and count as zeros in every average.\n",
			failed, len(a.Results))
	}
	b.WriteString("\n")
}

func writeRankedTable(b *strings.Builder, a *types.Analysis) {
	b.WriteString("## Ranked Comparison\n\n")
	if len(a.Results) == 0 {
		b.WriteString("No results.\n\n")
		return
	}

	b.WriteString("| Rank | SERP | Page | Score | Band | Words | H1/H2/H3 | Links in/out | Images (alt%) | Schema |\n")
	b.WriteString("|-----:|-----:|------|------:|------|------:|----------|--------------|---------------|-------:|\n")
	for i, r := range a.Results {
		title := r.Title
		if title == "" {
			title = displayHost(r.URL, r.Position)
		}
		fmt.Fprintf(b, "| %d | %d | %s | %d | %s | %d | %d/%d/%d | %d/%d | %d (%d%%) | %d |\n",
			i+1, r.Position, escapePipes(truncate(title, 48)),
			r.SEOScore, scoring.Bucket(r.SEOScore),
			r.WordCount, r.H1Count, r.H2Count, r.H3Count,
			r.InternalLinksCount, r.ExternalLinksCount,
			r.ImagesCount, r.AltTextPercentage, r.SchemaCount)
	}
	b.WriteString("\n")
}

// factorLeader names the page leading one numeric factor, skipping
// failed records so a zeroed fetch never "wins" a factor.
type factor struct {
	name  string
	value func(*types.ScoredPage) int
	unit  string
}

var factors = []factor{
	{"Content depth", func(r *types.ScoredPage) int { return r.WordCount }, " words"},
	{"Internal linking", func(r *types.ScoredPage) int { return r.InternalLinksCount }, " links"},
	{"External linking", func(r *types.ScoredPage) int { return r.ExternalLinksCount }, " links"},
	{"Image alt coverage", func(r *types.ScoredPage) int { return r.AltTextPercentage }, "%"},
	{"Schema markup", func(r *types.ScoredPage) int { return r.SchemaCount }, " types"},
}

func writeFactorComparison(b *strings.Builder, a *types.Analysis) {
	b.WriteString("## Comparison by SEO Factor\n\n")
	if len(a.Results) == 0 {
		b.WriteString("No results.\n\n")
		return
	}

	for _, f := range factors {
		leader := -1
		for i := range a.Results {
			r := &a.Results[i]
			if r.Failed() {
				continue
			}
			if leader < 0 || f.value(r) > f.value(&a.Results[leader]) {
				leader = i
			}
		}
		if leader < 0 {
			continue
		}
		r := &a.Results[leader]
		fmt.Fprintf(b, "- **%s**: %s leads with %d%s.\n",
			f.name, displayHost(r.URL, r.Position), f.value(r), f.unit)
	}
	b.WriteString("\n")
}

func writeFindings(b *strings.Builder, a *types.Analysis) {
	b.WriteString("## Per-Page Findings\n\n")

	for i, r := range a.Results {
		title := r.Title
		if title == "" {
			title = displayHost(r.URL, r.Position)
		}
		fmt.Fprintf(b, "### %d. %s (%d/100, %s)\n\n", i+1, title, r.SEOScore, scoring.Bucket(r.SEOScore))
		fmt.Fprintf(b, "<%s>\n\n", r.URL)

		for _, finding := range Findings(&r.PageMetrics) {
			fmt.Fprintf(b, "- %s\n", finding)
		}
		b.WriteString("\n")
	}
}

// Findings turns one page's metrics into human-readable observations
// mirroring the scoring thresholds.
func Findings(m *types.PageMetrics) []string {
	if m.Failed() {
		return []string{fmt.Sprintf("Fetch failed: %s. All metrics count as zero.", m.Error)}
	}

	var out []string

	switch n := utf8.RuneCountInString(m.Title); {
	case n == 0:
		out = append(out, "No title tag.")
	case n >= 50 && n <= 60:
		out = append(out, fmt.Sprintf("Title length %d is in the 50-60 character sweet spot.", n))
	case n >= 40 && n <= 70:
		out = append(out, fmt.Sprintf("Title length %d is close to the 50-60 character ideal.", n))
	default:
		out = append(out, fmt.Sprintf("Title length %d is outside the useful 40-70 character range.", n))
	}

	switch n := utf8.RuneCountInString(m.Description); {
	case n == 0:
		out = append(out, "No meta description.")
	case n >= 150 && n <= 160:
		out = append(out, fmt.Sprintf("Meta description length %d is in the 150-160 character sweet spot.", n))
	case n >= 120 && n <= 180:
		out = append(out, fmt.Sprintf("Meta description length %d is close to the 150-160 character ideal.", n))
	default:
		out = append(out, fmt.Sprintf("Meta description length %d is outside the useful 120-180 character range.", n))
	}

	switch {
	case m.H1Count == 1:
		out = append(out, "Single H1, as recommended.")
	case m.H1Count == 0:
		out = append(out, "No H1 heading.")
	default:
		out = append(out, fmt.Sprintf("%d H1 headings; a single H1 is recommended.", m.H1Count))
	}

	switch {
	case m.WordCount >= 1000:
		out = append(out, fmt.Sprintf("Strong content depth at %d words.", m.WordCount))
	case m.WordCount >= 300:
		out = append(out, fmt.Sprintf("Moderate content depth at %d words; 1000+ scores full marks.", m.WordCount))
	case m.WordCount > 0:
		out = append(out, fmt.Sprintf("Thin content at %d words.", m.WordCount))
	default:
		out = append(out, "No body text extracted.")
	}

	if m.ImagesCount > 0 {
		pct := scoring.AltTextPercentage(m.ImagesWithAltCount, m.ImagesCount)
		if m.ImagesWithAltCount == m.ImagesCount {
			out = append(out, fmt.Sprintf("All %d images carry alt text.", m.ImagesCount))
		} else {
			out = append(out, fmt.Sprintf("%d of %d images carry alt text (%d%%).",
				m.ImagesWithAltCount, m.ImagesCount, pct))
		}
	}

	switch {
	case m.SchemaCount >= 2:
		out = append(out, fmt.Sprintf("%d schema.org types detected (%s).",
			m.SchemaCount, strings.Join(m.SchemaTypes, ", ")))
	case m.SchemaCount == 1:
		out = append(out, fmt.Sprintf("One schema.org type detected (%s).",
			strings.Join(m.SchemaTypes, ", ")))
	default:
		out = append(out, "No structured data.")
	}

	switch {
	case m.InternalLinksCount >= 10:
		out = append(out, fmt.Sprintf("%d internal links, a healthy count.", m.InternalLinksCount))
	case m.InternalLinksCount > 0:
		out = append(out, fmt.Sprintf("%d internal links; 10+ scores full marks.", m.InternalLinksCount))
	default:
		out = append(out, "No internal links.")
	}

	return out
}

func writeGapAnalysis(b *strings.Builder, a *types.Analysis) {
	b.WriteString("## Competitive Gap Analysis\n\n")

	top, bottom := splitHalves(a.Results)
	if len(top) == 0 || len(bottom) == 0 {
		b.WriteString("Too few pages for a gap comparison.\n\n")
		return
	}

	fmt.Fprintf(b, "Comparing the top %d pages against the bottom %d by rank:\n\n", len(top), len(bottom))
	fmt.Fprintf(b, "- Word count: %d vs %d on average.\n", avgOf(top, wordCount), avgOf(bottom, wordCount))
	fmt.Fprintf(b, "- Internal links: %d vs %d on average.\n", avgOf(top, internalLinks), avgOf(bottom, internalLinks))
	fmt.Fprintf(b, "- Image alt coverage: %d%% vs %d%% on average.\n", avgOf(top, altPct), avgOf(bottom, altPct))
	fmt.Fprintf(b, "- Schema adoption: %d of %d vs %d of %d pages carry structured data.\n",
		countOf(top, hasSchema), len(top), countOf(bottom, hasSchema), len(bottom))
	b.WriteString("\n")
}

func writeRecommendations(b *strings.Builder, a *types.Analysis) {
	b.WriteString("## Recommendations\n\n")

	rec := a.Recommendations
	fmt.Fprintf(b, "- Target word count: **%d** (1.2x the %d-word average).\n",
		rec.TargetWordCount, a.Summary.AvgWordCount)
	if rec.TopResult != nil {
		fmt.Fprintf(b, "- Deepest competitor: %s at %d words. That is the content benchmark to beat.\n",
			displayHost(rec.TopResult.URL, rec.TopResult.Position), rec.TopResult.WordCount)
	}
	for _, advice := range rec.Advice {
		fmt.Fprintf(b, "- %s\n", advice)
	}
	b.WriteString("\n")
}

func bucketCounts(results []types.ScoredPage) (high, medium, low, failed int) {
	for _, r := range results {
		switch scoring.Bucket(r.SEOScore) {
		case scoring.BucketHigh:
			high++
		case scoring.BucketMedium:
			medium++
		default:
			low++
		}
		if r.Failed() {
			failed++
		}
	}
	return
}

func maxWordCount(results []types.ScoredPage) int {
	max := 0
	for _, r := range results {
		if r.WordCount > max {
			max = r.WordCount
		}
	}
	return max
}

// splitHalves divides the ranked list into a top and bottom half. The
// middle page of an odd-length list lands in the top half.
func splitHalves(results []types.ScoredPage) (top, bottom []types.ScoredPage) {
	if len(results) < 2 {
		return nil, nil
	}
	mid := (len(results) + 1) / 2
	return results[:mid], results[mid:]
}

func wordCount(r *types.ScoredPage) int { return r.WordCount }

func internalLinks(r *types.ScoredPage) int { return r.InternalLinksCount }

func altPct(r *types.ScoredPage) int { return r.AltTextPercentage }

func hasSchema(r *types.ScoredPage) bool { return r.SchemaCount > 0 }

func avgOf(results []types.ScoredPage, f func(*types.ScoredPage) int) int {
	if len(results) == 0 {
		return 0
	}
	sum := 0
	for i := range results {
		sum += f(&results[i])
	}
	return int(float64(sum)/float64(len(results)) + 0.5)
}

func countOf(results []types.ScoredPage, f func(*types.ScoredPage) bool) int {
	n := 0
	for i := range results {
		if f(&results[i]) {
			n++
		}
	}
	return n
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
