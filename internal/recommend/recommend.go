// Package recommend derives content targets from a scored result set.
// Like scoring, it is pure: no I/O, no logging, regenerated on each view.
package recommend

import (
	"math"

	"github.com/serpscope/serpscope/internal/types"
)

// Build derives recommendations for one result set. The target word count
// is 20% above the set's mean. The top result is the page with the most
// words, not the highest score; ties go to the earlier SERP position.
func Build(ranked []types.ScoredPage, summary types.AggregateSummary) types.Recommendations {
	rec := types.Recommendations{
		TargetWordCount: int(math.Round(float64(summary.AvgWordCount) * 1.2)),
		Advice: []string{
			"Aim for at least 10 internal links to related content.",
			"Use a single clear H1 with supporting H2 and H3 subheadings.",
			"Give every image descriptive alt text.",
			"Add schema.org structured data.",
		},
	}

	if top := topByWordCount(ranked); top != nil {
		rec.TopResult = top
	}
	return rec
}

// topByWordCount picks the page with the maximum word count. Ties are
// broken by the original SERP position, regardless of input order.
func topByWordCount(pages []types.ScoredPage) *types.ScoredPage {
	if len(pages) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(pages); i++ {
		if pages[i].WordCount > pages[best].WordCount {
			best = i
			continue
		}
		if pages[i].WordCount == pages[best].WordCount && pages[i].Position < pages[best].Position {
			best = i
		}
	}
	top := pages[best]
	return &top
}
