package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/serpscope/serpscope/internal/types"
)

func page(rawURL, title string, position, score int) types.ScoredPage {
	return types.ScoredPage{
		PageMetrics: types.PageMetrics{URL: rawURL, Title: title},
		Position:    position,
		SEOScore:    score,
	}
}

func sampleRuns() (prev, curr *types.Analysis) {
	prev = &types.Analysis{
		Query:     "ergonomic desk",
		Timestamp: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Results: []types.ScoredPage{
			page("https://beta.example.com/desks", "Beta Desks", 1, 80),
			page("https://alpha.example.com/guide", "Alpha Guide", 3, 71),
			page("https://steady.example.com/", "Steady", 2, 60),
			page("https://gone.example.com/old", "Gone", 5, 45),
		},
		Summary: types.AggregateSummary{AvgSEOScore: 64},
	}
	curr = &types.Analysis{
		Query:     "ergonomic desk",
		Timestamp: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		Results: []types.ScoredPage{
			page("https://alpha.example.com/guide", "Alpha Guide", 1, 84),
			page("https://beta.example.com/desks", "Beta Desks", 3, 75),
			page("https://steady.example.com/", "Steady", 2, 62),
			page("https://fresh.example.com/new", "Fresh", 4, 55),
		},
		Summary: types.AggregateSummary{AvgSEOScore: 69},
	}
	return prev, curr
}

// --- Compare ---

func TestCompareMovements(t *testing.T) {
	prev, curr := sampleRuns()
	d := Compare(prev, curr)

	if d.Query != "ergonomic desk" {
		t.Errorf("Query = %q", d.Query)
	}
	if !d.From.Equal(prev.Timestamp) || !d.To.Equal(curr.Timestamp) {
		t.Errorf("From/To = %v/%v", d.From, d.To)
	}
	if d.FromAvgScore != 64 || d.ToAvgScore != 69 {
		t.Errorf("avg scores = %d/%d, want 64/69", d.FromAvgScore, d.ToAvgScore)
	}

	want := []Movement{
		{URL: "https://alpha.example.com/guide", Title: "Alpha Guide", Type: MoveUp, FromPosition: 3, ToPosition: 1, FromScore: 71, ToScore: 84, ScoreDelta: 13},
		{URL: "https://beta.example.com/desks", Title: "Beta Desks", Type: MoveDown, FromPosition: 1, ToPosition: 3, FromScore: 80, ToScore: 75, ScoreDelta: -5},
		{URL: "https://steady.example.com/", Title: "Steady", Type: MoveSteady, FromPosition: 2, ToPosition: 2, FromScore: 60, ToScore: 62, ScoreDelta: 2},
		{URL: "https://fresh.example.com/new", Title: "Fresh", Type: MoveEntered, ToPosition: 4, ToScore: 55, ScoreDelta: 55},
		{URL: "https://gone.example.com/old", Title: "Gone", Type: MoveDropped, FromPosition: 5, FromScore: 45, ScoreDelta: -45},
	}
	if len(d.Movements) != len(want) {
		t.Fatalf("got %d movements, want %d: %+v", len(d.Movements), len(want), d.Movements)
	}
	for i, w := range want {
		if d.Movements[i] != w {
			t.Errorf("movement[%d] = %+v, want %+v", i, d.Movements[i], w)
		}
	}
}

func TestCompareIdenticalRuns(t *testing.T) {
	prev, _ := sampleRuns()
	same := *prev
	d := Compare(prev, &same)

	if d.HasMovement() {
		t.Errorf("HasMovement() = true for identical runs")
	}
	for _, m := range d.Movements {
		if m.Type != MoveSteady {
			t.Errorf("%s: type = %q, want steady", m.URL, m.Type)
		}
	}
}

func TestCompareEmptyPrevious(t *testing.T) {
	_, curr := sampleRuns()
	d := Compare(&types.Analysis{Query: curr.Query}, curr)

	if len(d.Movements) != len(curr.Results) {
		t.Fatalf("got %d movements, want %d", len(d.Movements), len(curr.Results))
	}
	for _, m := range d.Movements {
		if m.Type != MoveEntered {
			t.Errorf("%s: type = %q, want entered", m.URL, m.Type)
		}
	}
	if !d.HasMovement() {
		t.Errorf("HasMovement() = false")
	}
}

func TestHasMovementScoreOnly(t *testing.T) {
	prev, _ := sampleRuns()

	curr := *prev
	curr.Results = make([]types.ScoredPage, len(prev.Results))
	copy(curr.Results, prev.Results)
	curr.Results[0].SEOScore += 3

	d := Compare(prev, &curr)
	if !d.HasMovement() {
		t.Errorf("HasMovement() = false after a score change")
	}
}

// --- LatestDiff ---

type fakeHistory struct {
	runs []*types.Analysis
	err  error
}

func (f *fakeHistory) History(_ context.Context, _ string, limit int) ([]*types.Analysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.runs) > limit {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func TestLatestDiff(t *testing.T) {
	prev, curr := sampleRuns()

	t.Run("two runs", func(t *testing.T) {
		// History returns newest first.
		h := &fakeHistory{runs: []*types.Analysis{curr, prev}}
		d, err := LatestDiff(context.Background(), h, "ergonomic desk")
		if err != nil {
			t.Fatalf("LatestDiff: %v", err)
		}
		if !d.From.Equal(prev.Timestamp) || !d.To.Equal(curr.Timestamp) {
			t.Errorf("diff direction wrong: From %v To %v", d.From, d.To)
		}
	})

	t.Run("single run", func(t *testing.T) {
		h := &fakeHistory{runs: []*types.Analysis{curr}}
		if _, err := LatestDiff(context.Background(), h, "ergonomic desk"); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("reader error", func(t *testing.T) {
		h := &fakeHistory{err: errors.New("backend down")}
		if _, err := LatestDiff(context.Background(), h, "ergonomic desk"); err == nil {
			t.Errorf("expected error")
		}
	})
}

// --- Markdown ---

func TestDiffMarkdown(t *testing.T) {
	prev, curr := sampleRuns()
	md := Compare(prev, curr).Markdown()

	for _, want := range []string{
		"## Rank Movement",
		"Comparing runs from 2025-03-10 09:00 to 2025-03-14 09:30:",
		"- **alpha.example.com** moved up from position 3 to 1 (score 71 to 84).",
		"- **beta.example.com** moved down from position 1 to 3 (score 80 to 75).",
		"- **steady.example.com** held position 2 (score 60 to 62).",
		"- **fresh.example.com** entered at position 4 (score 55).",
		"- **gone.example.com** dropped out (was position 5, score 45).",
		"Average score moved 64 to 69.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}
