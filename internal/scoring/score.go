// Package scoring implements the fixed on-page rubric, ranking, and
// aggregate summaries. Everything here is pure: it operates over
// already-extracted metrics and performs no I/O.
package scoring

import (
	"math"
	"unicode/utf8"

	"github.com/serpscope/serpscope/internal/types"
)

// Display buckets for a final score.
const (
	BucketHigh   = "high"
	BucketMedium = "medium"
	BucketLow    = "low"
)

const criterionMax = 10

// Points accumulates the rubric over one page's metrics and returns the
// earned points alongside the maximum applicable points. Title,
// description, and the image alt criterion only count toward the maximum
// when applicable, so the denominator varies per page. H1, word count,
// schema, and internal links always count.
func Points(m *types.PageMetrics) (score, max int) {
	if n := utf8.RuneCountInString(m.Title); n > 0 {
		max += criterionMax
		switch {
		case n >= 50 && n <= 60:
			score += 10
		case n >= 40 && n <= 70:
			score += 7
		default:
			score += 4
		}
	}

	if n := utf8.RuneCountInString(m.Description); n > 0 {
		max += criterionMax
		switch {
		case n >= 150 && n <= 160:
			score += 10
		case n >= 120 && n <= 180:
			score += 7
		default:
			score += 4
		}
	}

	max += criterionMax
	switch {
	case m.H1Count == 1:
		score += 10
	case m.H1Count > 1:
		score += 5
	}

	max += criterionMax
	switch {
	case m.WordCount >= 1000:
		score += 10
	case m.WordCount >= 600:
		score += 8
	case m.WordCount >= 300:
		score += 6
	case m.WordCount > 0:
		score += 3
	}

	// Pages without images skip the alt criterion entirely, like the
	// absent-title case: no credit and no max contribution.
	if m.ImagesCount > 0 {
		max += criterionMax
		ratio := float64(m.ImagesWithAltCount) / float64(m.ImagesCount)
		switch {
		case m.ImagesWithAltCount == m.ImagesCount:
			score += 10
		case ratio >= 0.8:
			score += 8
		case ratio >= 0.5:
			score += 5
		default:
			score += 2
		}
	}

	max += criterionMax
	switch {
	case m.SchemaCount >= 2:
		score += 10
	case m.SchemaCount == 1:
		score += 7
	}

	max += criterionMax
	switch {
	case m.InternalLinksCount >= 10:
		score += 10
	case m.InternalLinksCount >= 5:
		score += 7
	case m.InternalLinksCount > 0:
		score += 3
	}

	return score, max
}

// Final normalizes the rubric points to a 0-100 score. A zero maximum
// (impossible with current criteria, four are always counted) yields
// zero rather than dividing.
func Final(m *types.PageMetrics) int {
	score, max := Points(m)
	if max == 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(max)))
}

// AltTextPercentage converts raw image counts to a whole percentage.
// Zero images means zero percent.
func AltTextPercentage(imagesWithAlt, images int) int {
	if images <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(imagesWithAlt) / float64(images)))
}

// Bucket classifies a final score for display.
func Bucket(score int) string {
	switch {
	case score >= 80:
		return BucketHigh
	case score >= 60:
		return BucketMedium
	default:
		return BucketLow
	}
}
