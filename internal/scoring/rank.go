package scoring

import (
	"sort"

	"github.com/serpscope/serpscope/internal/types"
)

// ScorePage attaches the derived score and alt percentage to one metrics
// record. Position is taken from the original SERP rank and is never
// recomputed afterwards.
func ScorePage(m types.PageMetrics, position int) types.ScoredPage {
	return types.ScoredPage{
		PageMetrics:       m,
		Position:          position,
		SEOScore:          Final(&m),
		AltTextPercentage: AltTextPercentage(m.ImagesWithAltCount, m.ImagesCount),
	}
}

// Rank sorts pages descending by score. Ties keep first-seen order, which
// for pages scored in SERP order means ascending original position.
func Rank(pages []types.ScoredPage) {
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].SEOScore > pages[j].SEOScore
	})
}

// ScoreAll scores metrics records in order, assigning 1-based positions
// from slice order, and returns them ranked.
func ScoreAll(metrics []types.PageMetrics) []types.ScoredPage {
	pages := make([]types.ScoredPage, 0, len(metrics))
	for i, m := range metrics {
		pages = append(pages, ScorePage(m, i+1))
	}
	Rank(pages)
	return pages
}
