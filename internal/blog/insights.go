// Package blog turns a completed analysis into a publish-ready,
// SEO-targeted blog post by filling a long-form markdown template
// with competitor-derived values. Generation is two-pass: known
// variables first, then a catch-all pass for any placeholder the
// template carries beyond the generated vocabulary.
package blog

import (
	"regexp"
	"strings"

	"github.com/serpscope/serpscope/internal/types"
)

// maxCompetitors bounds how many results feed the insight extraction.
const maxCompetitors = 6

// Competitor is one ranked page reduced to the fields the template
// vocabulary draws from.
type Competitor struct {
	Position       int
	Name           string
	URL            string
	Title          string
	WordCount      int
	H1Count        int
	H2Count        int
	H3Count        int
	InternalLinks  int
	ExternalLinks  int
	Images         int
	SchemaCount    int
	UniqueFeatures []string
}

// TargetMetric holds the competitive target for one metric: beat the
// top competitor by 10% or the field average by 50%, whichever is more.
type TargetMetric struct {
	Avg    float64
	Top    int
	Target int
}

// Targets collects the metrics the template asks the writer to hit.
type Targets struct {
	WordCount     TargetMetric
	InternalLinks TargetMetric
	ExternalLinks TargetMetric
	Images        TargetMetric
}

// Insights is everything extracted from an analysis that the variable
// builder needs.
type Insights struct {
	Query       string
	Competitors []Competitor
	Primary     string
	Singular    string
	Related     []string
	Targets     Targets
}

// featurePatterns pull claimed features and benefits out of a page's
// content preview. Captures run to the next sentence break and are
// length-bounded to stay quotable.
var featurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)features?[\s:]+([^.\n]{11,99})`),
	regexp.MustCompile(`(?i)benefits?[\s:]+([^.\n]{11,99})`),
	regexp.MustCompile(`(?i)advantages?[\s:]+([^.\n]{11,99})`),
	regexp.MustCompile(`(?i)unique[\s:]+([^.\n]{11,99})`),
	regexp.MustCompile(`(?i)patent(?:ed)?[\s:]+([^.\n]{11,99})`),
}

// ExtractInsights reduces an analysis to the competitor, keyword, and
// target-metric inputs of the blog template.
func ExtractInsights(a *types.Analysis) *Insights {
	ins := &Insights{
		Query:    a.Query,
		Primary:  a.Query,
		Singular: strings.TrimRight(a.Query, "s"),
		Related:  relatedKeywords(a.Query),
	}

	for i, r := range a.Results {
		if i >= maxCompetitors {
			break
		}
		ins.Competitors = append(ins.Competitors, Competitor{
			Position:       i + 1,
			Name:           competitorName(r.Title),
			URL:            r.URL,
			Title:          r.Title,
			WordCount:      r.WordCount,
			H1Count:        r.H1Count,
			H2Count:        r.H2Count,
			H3Count:        r.H3Count,
			InternalLinks:  r.InternalLinksCount,
			ExternalLinks:  r.ExternalLinksCount,
			Images:         r.ImagesCount,
			SchemaCount:    r.SchemaCount,
			UniqueFeatures: uniqueFeatures(r.ContentPreview),
		})
	}

	ins.Targets = Targets{
		WordCount:     targetFor(ins.Competitors, func(c *Competitor) int { return c.WordCount }),
		InternalLinks: targetFor(ins.Competitors, func(c *Competitor) int { return c.InternalLinks }),
		ExternalLinks: targetFor(ins.Competitors, func(c *Competitor) int { return c.ExternalLinks }),
		Images:        targetFor(ins.Competitors, func(c *Competitor) int { return c.Images }),
	}
	return ins
}

// competitorName takes the brand half of a classic "Product - Brand"
// result title.
func competitorName(title string) string {
	name, _, _ := strings.Cut(title, " - ")
	return strings.TrimSpace(name)
}

// uniqueFeatures scans a content preview for feature and benefit
// claims, capped at three matches per pattern and five overall.
func uniqueFeatures(content string) []string {
	if content == "" {
		return nil
	}
	var features []string
	for _, pattern := range featurePatterns {
		matches := pattern.FindAllStringSubmatch(content, 3)
		for _, m := range matches {
			features = append(features, strings.TrimSpace(m[1]))
			if len(features) == 5 {
				return features
			}
		}
	}
	return features
}

// relatedKeywords derives keyword variants: word order reversed, common
// quality modifiers, and purpose suffixes, capped at ten.
func relatedKeywords(query string) []string {
	words := strings.Fields(query)
	var related []string

	if len(words) > 1 {
		reversed := make([]string, len(words))
		for i, w := range words {
			reversed[len(words)-1-i] = w
		}
		related = append(related, strings.Join(reversed, " "))
	}

	lower := strings.ToLower(query)
	for _, mod := range []string{"best", "top", "custom", "professional", "premium", "affordable"} {
		if !strings.Contains(lower, mod) {
			related = append(related, mod+" "+query)
		}
	}

	for _, purpose := range []string{"for business", "for home", "for office", "for travel"} {
		related = append(related, query+" "+purpose)
	}

	if len(related) > 10 {
		related = related[:10]
	}
	return related
}

// targetFor computes one metric's target over the competitor set:
// max(top*1.1, avg*1.5), truncated to an integer.
func targetFor(competitors []Competitor, value func(*Competitor) int) TargetMetric {
	if len(competitors) == 0 {
		return TargetMetric{}
	}
	sum, top := 0, 0
	for i := range competitors {
		v := value(&competitors[i])
		sum += v
		if v > top {
			top = v
		}
	}
	avg := float64(sum) / float64(len(competitors))
	target := float64(top) * 1.1
	if scaled := avg * 1.5; scaled > target {
		target = scaled
	}
	return TargetMetric{Avg: avg, Top: top, Target: int(target)}
}
