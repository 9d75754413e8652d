package scoring

import (
	"math"

	"github.com/serpscope/serpscope/internal/types"
)

// Summarize computes arithmetic means over every page in the set. Error
// records participate as zeros. An empty set returns the zero summary.
func Summarize(pages []types.ScoredPage) types.AggregateSummary {
	var s types.AggregateSummary
	n := len(pages)
	if n == 0 {
		return s
	}

	var (
		words, h1, internal, external int
		images, altPct, schema, score int
	)
	for i := range pages {
		p := &pages[i]
		words += p.WordCount
		h1 += p.H1Count
		internal += p.InternalLinksCount
		external += p.ExternalLinksCount
		images += p.ImagesCount
		altPct += p.AltTextPercentage
		schema += p.SchemaCount
		score += p.SEOScore
	}

	fn := float64(n)
	s.AvgWordCount = roundInt(float64(words) / fn)
	s.AvgH1Count = roundTenth(float64(h1) / fn)
	s.AvgInternalLinks = roundInt(float64(internal) / fn)
	s.AvgExternalLinks = roundInt(float64(external) / fn)
	s.AvgImagesCount = roundInt(float64(images) / fn)
	s.AvgAltTextPercentage = roundInt(float64(altPct) / fn)
	s.AvgSchemaCount = roundTenth(float64(schema) / fn)
	s.AvgSEOScore = roundInt(float64(score) / fn)
	return s
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
