// Package extract turns a fetched landing page into the on-page metrics
// that scoring runs on. Extraction never fails a run: a page that cannot
// be fetched or parsed becomes a zeroed record carrying the error text.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/types"
)

// noiseSelector matches elements removed before word counting and
// preview generation. Navigation chrome would otherwise dominate the
// word count on small pages.
const noiseSelector = "script, style, noscript, nav, footer, header, aside, form, iframe, svg, .sidebar, .menu, .nav, .cookie, .ads, .advertisement"

// Extractor computes PageMetrics from fetched responses.
type Extractor struct {
	previewWords int
	logger       *slog.Logger
}

// New creates an Extractor.
func New(cfg *config.AnalysisConfig, logger *slog.Logger) *Extractor {
	words := cfg.ContentPreviewWords
	if words <= 0 {
		words = 150
	}
	return &Extractor{
		previewWords: words,
		logger:       logger.With("component", "extractor"),
	}
}

// Page extracts metrics from one response. Parse failures degrade to a
// Failure record rather than an error so the page stays in the set.
func (e *Extractor) Page(resp *types.PageResponse) types.PageMetrics {
	doc, err := resp.Document()
	if err != nil {
		m := Failure(resp.Request.URLString(), fmt.Errorf("parse HTML: %w", err))
		m.StatusCode = resp.StatusCode
		return m
	}

	m := types.PageMetrics{
		URL:         resp.Request.URLString(),
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Description: metaContent(doc, "description"),

		H1Count: doc.Find("h1").Length(),
		H2Count: doc.Find("h2").Length(),
		H3Count: doc.Find("h3").Length(),

		PageSizeKB: resp.SizeKB(),
		LoadTimeMS: resp.FetchDuration.Milliseconds(),
		StatusCode: resp.StatusCode,
	}

	m.InternalLinksCount, m.ExternalLinksCount = countLinks(doc, resp.FinalURL)
	m.ImagesCount, m.ImagesWithAltCount = countImages(doc)

	m.SchemaTypes = SchemaTypes(doc)
	m.SchemaCount = len(m.SchemaTypes)

	bodyText := cleanBodyText(doc)
	m.WordCount = len(strings.Fields(bodyText))
	m.ContentPreview = e.preview(doc)

	e.logger.Debug("page extracted",
		"url", m.URL,
		"words", m.WordCount,
		"schema_types", m.SchemaCount,
	)
	return m
}

// Failure builds the zeroed record for a page that could not be fetched
// or parsed. The URL, the error text, and the HTTP status when the
// failure came from a response survive; everything else is zero.
func Failure(pageURL string, err error) types.PageMetrics {
	m := types.PageMetrics{
		URL:   pageURL,
		Error: err.Error(),
	}
	var fetchErr *types.FetchError
	if errors.As(err, &fetchErr) {
		m.StatusCode = fetchErr.StatusCode
	}
	return m
}

// metaContent reads <meta name=...> content.
func metaContent(doc *goquery.Document, name string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).Attr("content")
	return strings.TrimSpace(content)
}

// countLinks classifies <a href> targets as internal or external by
// host, after resolving relative references against the final URL.
// Same-page anchors and non-web schemes are not links for SEO purposes.
func countLinks(doc *goquery.Document, baseURL string) (internal, external int) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return 0, 0
	}
	pageHost := types.NormalizeHost(baseURL)

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" ||
			strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "data:") {
			return
		}

		parsed, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(parsed)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		if types.NormalizeHost(resolved.String()) == pageHost {
			internal++
		} else {
			external++
		}
	})
	return internal, external
}

// countImages counts <img> elements and those carrying non-empty alt text.
func countImages(doc *goquery.Document) (total, withAlt int) {
	doc.Find("img").Each(func(i int, sel *goquery.Selection) {
		total++
		if alt, exists := sel.Attr("alt"); exists && strings.TrimSpace(alt) != "" {
			withAlt++
		}
	})
	return total, withAlt
}

// cleanBodyText strips noise elements from a body clone and returns the
// remaining visible text.
func cleanBodyText(doc *goquery.Document) string {
	bodyClone := doc.Find("body").Clone()
	bodyClone.Find(noiseSelector).Remove()
	return strings.TrimSpace(bodyClone.Text())
}

// preview converts the main content to markdown and truncates it to the
// configured word budget.
func (e *Extractor) preview(doc *goquery.Document) string {
	content := mainContent(doc)
	if content == nil {
		return ""
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return ""
	}

	markdown, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		e.logger.Debug("markdown conversion failed", "error", err)
		return ""
	}

	words := strings.Fields(markdown)
	if len(words) > e.previewWords {
		words = words[:e.previewWords]
	}
	return strings.Join(words, " ")
}

// mainContent picks the best content container: <main>, then <article>,
// then <body>, with noise elements removed from a clone.
func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, tag := range []string{"main", "article", "body"} {
		sel := doc.Find(tag)
		if sel.Length() > 0 {
			clone := sel.First().Clone()
			clone.Find(noiseSelector).Remove()
			return clone
		}
	}
	return nil
}
