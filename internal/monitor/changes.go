// Package monitor compares consecutive stored runs of one query and
// reports how each URL moved: SERP position deltas, score deltas, and
// entries into or out of the result set.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/serpscope/serpscope/internal/types"
)

// MoveType identifies how a URL moved between two runs.
type MoveType string

const (
	MoveUp      MoveType = "up"
	MoveDown    MoveType = "down"
	MoveSteady  MoveType = "steady"
	MoveEntered MoveType = "entered"
	MoveDropped MoveType = "dropped"
)

// Movement is one URL's change between two runs of the same query.
// Positions are SERP positions, not score ranks.
type Movement struct {
	URL          string   `json:"url"`
	Title        string   `json:"title,omitempty"`
	Type         MoveType `json:"type"`
	FromPosition int      `json:"from_position,omitempty"`
	ToPosition   int      `json:"to_position,omitempty"`
	FromScore    int      `json:"from_score,omitempty"`
	ToScore      int      `json:"to_score,omitempty"`
	ScoreDelta   int      `json:"score_delta"`
}

// Diff summarizes run-over-run movement for one query.
type Diff struct {
	Query        string     `json:"query"`
	From         time.Time  `json:"from"`
	To           time.Time  `json:"to"`
	FromAvgScore int        `json:"from_avg_score"`
	ToAvgScore   int        `json:"to_avg_score"`
	Movements    []Movement `json:"movements"`
}

// HistoryReader is the slice of the storage layer the monitor needs.
type HistoryReader interface {
	History(ctx context.Context, query string, limit int) ([]*types.Analysis, error)
}

// Compare diffs two runs of the same query. prev is the older run.
// Movements are ordered: shared URLs by current position, then new
// entries, then dropped URLs by their old position.
func Compare(prev, curr *types.Analysis) *Diff {
	d := &Diff{
		Query:        curr.Query,
		From:         prev.Timestamp,
		To:           curr.Timestamp,
		FromAvgScore: prev.Summary.AvgSEOScore,
		ToAvgScore:   curr.Summary.AvgSEOScore,
	}

	old := make(map[string]*types.ScoredPage, len(prev.Results))
	for i := range prev.Results {
		old[prev.Results[i].URL] = &prev.Results[i]
	}
	seen := make(map[string]bool, len(curr.Results))

	for i := range curr.Results {
		r := &curr.Results[i]
		seen[r.URL] = true

		o, ok := old[r.URL]
		if !ok {
			d.Movements = append(d.Movements, Movement{
				URL:        r.URL,
				Title:      r.Title,
				Type:       MoveEntered,
				ToPosition: r.Position,
				ToScore:    r.SEOScore,
				ScoreDelta: r.SEOScore,
			})
			continue
		}

		mv := Movement{
			URL:          r.URL,
			Title:        r.Title,
			FromPosition: o.Position,
			ToPosition:   r.Position,
			FromScore:    o.SEOScore,
			ToScore:      r.SEOScore,
			ScoreDelta:   r.SEOScore - o.SEOScore,
		}
		switch {
		case r.Position < o.Position:
			mv.Type = MoveUp
		case r.Position > o.Position:
			mv.Type = MoveDown
		default:
			mv.Type = MoveSteady
		}
		d.Movements = append(d.Movements, mv)
	}

	for i := range prev.Results {
		o := &prev.Results[i]
		if seen[o.URL] {
			continue
		}
		d.Movements = append(d.Movements, Movement{
			URL:          o.URL,
			Title:        o.Title,
			Type:         MoveDropped,
			FromPosition: o.Position,
			FromScore:    o.SEOScore,
			ScoreDelta:   -o.SEOScore,
		})
	}

	return d
}

// LatestDiff compares the two newest stored runs of a query. It
// returns ErrNotFound when fewer than two runs exist.
func LatestDiff(ctx context.Context, r HistoryReader, query string) (*Diff, error) {
	runs, err := r.History(ctx, query, 2)
	if err != nil {
		return nil, err
	}
	if len(runs) < 2 {
		return nil, types.ErrNotFound
	}
	// History returns newest first.
	return Compare(runs[1], runs[0]), nil
}

// HasMovement reports whether anything changed between the runs:
// position moves, score moves, entries, or drops.
func (d *Diff) HasMovement() bool {
	if d.FromAvgScore != d.ToAvgScore {
		return true
	}
	for _, m := range d.Movements {
		if m.Type != MoveSteady || m.ScoreDelta != 0 {
			return true
		}
	}
	return false
}

// Markdown renders the movement section appended to reports and
// printed by the history command.
func (d *Diff) Markdown() string {
	var b strings.Builder

	b.WriteString("## Rank Movement\n\n")
	fmt.Fprintf(&b, "Comparing runs from %s to %s:\n\n",
		d.From.Format("2006-01-02 15:04"), d.To.Format("2006-01-02 15:04"))

	for _, m := range d.Movements {
		host := types.NormalizeHost(m.URL)
		if host == "" {
			host = m.URL
		}
		switch m.Type {
		case MoveUp:
			fmt.Fprintf(&b, "- **%s** moved up from position %d to %d (score %d to %d).\n",
				host, m.FromPosition, m.ToPosition, m.FromScore, m.ToScore)
		case MoveDown:
			fmt.Fprintf(&b, "- **%s** moved down from position %d to %d (score %d to %d).\n",
				host, m.FromPosition, m.ToPosition, m.FromScore, m.ToScore)
		case MoveSteady:
			fmt.Fprintf(&b, "- **%s** held position %d (score %d to %d).\n",
				host, m.ToPosition, m.FromScore, m.ToScore)
		case MoveEntered:
			fmt.Fprintf(&b, "- **%s** entered at position %d (score %d).\n",
				host, m.ToPosition, m.ToScore)
		case MoveDropped:
			fmt.Fprintf(&b, "- **%s** dropped out (was position %d, score %d).\n",
				host, m.FromPosition, m.FromScore)
		}
	}

	fmt.Fprintf(&b, "\nAverage score moved %d to %d.\n", d.FromAvgScore, d.ToAvgScore)
	return b.String()
}
