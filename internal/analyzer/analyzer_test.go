package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/fetcher"
	"github.com/serpscope/serpscope/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// --- Fakes ---

type fakeSearcher struct {
	name    string
	results []types.SerpResult
	err     error
	calls   int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]types.SerpResult, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	if len(f.results) > limit {
		return f.results[:limit], f.name, nil
	}
	return f.results, f.name, nil
}

type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	fails    map[string]error
	failOnce map[string]error
	delays   map[string]time.Duration
	calls    map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:    make(map[string]string),
		fails:    make(map[string]error),
		failOnce: make(map[string]error),
		delays:   make(map[string]time.Duration),
		calls:    make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, req *types.PageRequest) (*types.PageResponse, error) {
	u := req.URLString()
	f.mu.Lock()
	f.calls[u]++
	attempt := f.calls[u]
	delay := f.delays[u]
	permanent := f.fails[u]
	transient := f.failOnce[u]
	html := f.pages[u]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, types.NewFetchError(u, ctx.Err(), false)
		}
	}
	if permanent != nil {
		return nil, permanent
	}
	if transient != nil && attempt == 1 {
		return nil, transient
	}
	return types.NewBrowserPageResponse(req, 200, []byte(html), u, time.Millisecond), nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "fake" }

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

type fakeStore struct {
	mu    sync.Mutex
	saved []*types.Analysis
	err   error
}

func (s *fakeStore) Save(ctx context.Context, a *types.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, a)
	return s.err
}

type fakeInsighter struct {
	text string
	err  error
}

func (f *fakeInsighter) Insights(ctx context.Context, a *types.Analysis) (string, error) {
	return f.text, f.err
}

// --- Helpers ---

func newTestAnalyzer(t *testing.T, s Searcher, f fetcher.Fetcher) *Analyzer {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Fetcher.PolitenessDelay = 0
	cfg.Fetcher.RetryDelay = 10 * time.Millisecond
	cfg.Search.MaxResults = 10

	a, err := New(cfg, testLogger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	if s != nil {
		a.SetSearcher(s)
	}
	if f != nil {
		a.SetFetcher(f)
	}
	return a
}

func serpResult(position int, url string) types.SerpResult {
	return types.SerpResult{
		Position: position,
		URL:      url,
		Title:    fmt.Sprintf("Result %d", position),
		Snippet:  "snippet",
	}
}

func drainProgress(a *Analyzer) []types.ProgressEvent {
	var events []types.ProgressEvent
	for {
		select {
		case ev := <-a.Progress():
			events = append(events, ev)
		default:
			return events
		}
	}
}

// --- Run Tests ---

func TestRunEmptyQuery(t *testing.T) {
	a := newTestAnalyzer(t, &fakeSearcher{name: "fake"}, newFakeFetcher())

	if _, err := a.Run(context.Background(), "   "); !errors.Is(err, types.ErrEmptyQuery) {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestRunSearchFailure(t *testing.T) {
	s := &fakeSearcher{err: types.ErrAllSourcesFailed}
	a := newTestAnalyzer(t, s, newFakeFetcher())

	_, err := a.Run(context.Background(), "laptop stand")
	if !errors.Is(err, types.ErrAllSourcesFailed) {
		t.Fatalf("err = %v, want ErrAllSourcesFailed", err)
	}
	if got := a.Stats().AnalysesFailed.Load(); got != 1 {
		t.Errorf("analyses_failed = %d, want 1", got)
	}
}

func TestRunFullPipeline(t *testing.T) {
	longBody := strings.Repeat("relevant content words here ", 300)

	var links strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&links, `<a href="/related-%d">related</a> `, i)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/strong":
			fmt.Fprintf(w, `<html><head>
				<title>Best Ergonomic Laptop Stands Reviewed For Desks</title>
				<meta name="description" content="%s">
				<script type="application/ld+json">{"@type":"Product"}</script>
				<script type="application/ld+json">{"@type":"Review"}</script>
				</head><body><h1>Stands</h1>
				%s
				<p>%s</p>
				<img src="a.jpg" alt="stand"><img src="b.jpg" alt="desk">
				</body></html>`,
				strings.Repeat("d", 155),
				links.String(),
				longBody)
		case "/weak":
			fmt.Fprint(w, `<html><head></head><body><p>thin page</p></body></html>`)
		default:
			fmt.Fprintf(w, `<html><head><title>Mid page title</title></head>
				<body><h1>Mid</h1><h1>Second H1</h1><p>%s</p></body></html>`,
				strings.Repeat("mid words ", 80))
		}
	}))
	defer srv.Close()

	s := &fakeSearcher{name: "fake", results: []types.SerpResult{
		serpResult(1, srv.URL+"/weak"),
		serpResult(2, srv.URL+"/strong"),
		serpResult(3, srv.URL+"/mid"),
	}}
	a := newTestAnalyzer(t, s, nil) // real HTTP fetcher against httptest

	analysis, err := a.Run(context.Background(), "ergonomic laptop stand")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if analysis.Source != "fake" {
		t.Errorf("source = %q", analysis.Source)
	}
	if analysis.SerpReturned != 3 || analysis.Analyzed != 3 {
		t.Errorf("counts = %d/%d, want 3/3", analysis.SerpReturned, analysis.Analyzed)
	}

	// Rank order is descending by score.
	for i := 1; i < len(analysis.Results); i++ {
		if analysis.Results[i].SEOScore > analysis.Results[i-1].SEOScore {
			t.Errorf("results not ranked: score[%d]=%d > score[%d]=%d",
				i, analysis.Results[i].SEOScore, i-1, analysis.Results[i-1].SEOScore)
		}
	}
	if !strings.HasSuffix(analysis.Results[0].URL, "/strong") {
		t.Errorf("top ranked = %s, want /strong", analysis.Results[0].URL)
	}

	// Positions reflect SERP order, not completion or rank order.
	for _, r := range analysis.Results {
		switch {
		case strings.HasSuffix(r.URL, "/weak") && r.Position != 1:
			t.Errorf("weak position = %d, want 1", r.Position)
		case strings.HasSuffix(r.URL, "/strong") && r.Position != 2:
			t.Errorf("strong position = %d, want 2", r.Position)
		case strings.HasSuffix(r.URL, "/mid") && r.Position != 3:
			t.Errorf("mid position = %d, want 3", r.Position)
		}
	}

	if analysis.Summary.AvgWordCount <= 0 {
		t.Error("summary has zero mean word count")
	}
	if analysis.Recommendations.TopResult == nil {
		t.Error("expected a top result recommendation")
	}
	if got := a.Stats().PagesFetched.Load(); got != 3 {
		t.Errorf("pages_fetched = %d, want 3", got)
	}
}

func TestRunFailedPageBecomesZeroRecord(t *testing.T) {
	f := newFakeFetcher()
	f.pages["https://ok.example.com/"] = `<html><head><title>ok</title></head><body><h1>ok</h1><p>alpha beta</p></body></html>`
	f.fails["https://dead.example.com/"] = types.NewFetchError("https://dead.example.com/", errors.New("connection refused"), false)

	s := &fakeSearcher{name: "fake", results: []types.SerpResult{
		serpResult(1, "https://ok.example.com/"),
		serpResult(2, "https://dead.example.com/"),
	}}
	a := newTestAnalyzer(t, s, f)

	analysis, err := a.Run(context.Background(), "query")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if analysis.Analyzed != 2 {
		t.Fatalf("analyzed = %d, want 2 (failed pages stay in the set)", analysis.Analyzed)
	}

	var failed *types.ScoredPage
	for i := range analysis.Results {
		if analysis.Results[i].Failed() {
			failed = &analysis.Results[i]
		}
	}
	if failed == nil {
		t.Fatal("expected one failed record in results")
	}
	if failed.URL != "https://dead.example.com/" {
		t.Errorf("failed url = %s", failed.URL)
	}
	if failed.WordCount != 0 || failed.SEOScore != 0 {
		t.Errorf("failed record not zeroed: wc=%d score=%d", failed.WordCount, failed.SEOScore)
	}
	if failed.Position != 2 {
		t.Errorf("failed record position = %d, want 2", failed.Position)
	}
	if got := a.Stats().PagesFailed.Load(); got != 1 {
		t.Errorf("pages_failed = %d, want 1", got)
	}
}

func TestRunPreservesSerpOrderUnderConcurrency(t *testing.T) {
	page := `<html><head><title>same</title></head><body><h1>same</h1><p>one two three</p></body></html>`

	f := newFakeFetcher()
	urls := []string{
		"https://slow.example.com/",
		"https://fast1.example.com/",
		"https://fast2.example.com/",
	}
	for _, u := range urls {
		f.pages[u] = page
	}
	f.delays["https://slow.example.com/"] = 80 * time.Millisecond

	s := &fakeSearcher{name: "fake", results: []types.SerpResult{
		serpResult(1, urls[0]),
		serpResult(2, urls[1]),
		serpResult(3, urls[2]),
	}}
	a := newTestAnalyzer(t, s, f)

	analysis, err := a.Run(context.Background(), "query")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Identical pages score identically, so the stable rank keeps SERP
	// order even though the first result finished last.
	for i, r := range analysis.Results {
		if r.Position != i+1 {
			t.Errorf("result %d has position %d", i, r.Position)
		}
	}
	if analysis.Results[0].URL != urls[0] {
		t.Errorf("first result = %s, want the slow first SERP hit", analysis.Results[0].URL)
	}
}

func TestRunRetriesTransientFailure(t *testing.T) {
	u := "https://flaky.example.com/"
	f := newFakeFetcher()
	f.pages[u] = `<html><head><title>ok</title></head><body><p>recovered</p></body></html>`
	f.failOnce[u] = &types.FetchError{URL: u, StatusCode: 503, Err: errors.New("upstream hiccup"), Retryable: true}

	s := &fakeSearcher{name: "fake", results: []types.SerpResult{serpResult(1, u)}}
	a := newTestAnalyzer(t, s, f)

	analysis, err := a.Run(context.Background(), "query")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if f.callCount(u) != 2 {
		t.Errorf("fetch attempts = %d, want 2", f.callCount(u))
	}
	if analysis.Results[0].Failed() {
		t.Errorf("record failed after successful retry: %s", analysis.Results[0].Error)
	}
	if got := a.Stats().PagesRetried.Load(); got != 1 {
		t.Errorf("pages_retried = %d, want 1", got)
	}
}

func TestRunSaveErrorDoesNotFailRun(t *testing.T) {
	u := "https://ok.example.com/"
	f := newFakeFetcher()
	f.pages[u] = `<html><body><p>fine</p></body></html>`

	store := &fakeStore{err: errors.New("disk full")}
	s := &fakeSearcher{name: "fake", results: []types.SerpResult{serpResult(1, u)}}
	a := newTestAnalyzer(t, s, f)
	a.SetStore(store)

	analysis, err := a.Run(context.Background(), "query")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if analysis == nil {
		t.Fatal("expected analysis despite save failure")
	}
	if len(store.saved) != 1 {
		t.Errorf("save calls = %d, want 1", len(store.saved))
	}
}

func TestRunInsights(t *testing.T) {
	u := "https://ok.example.com/"
	f := newFakeFetcher()
	f.pages[u] = `<html><body><p>fine</p></body></html>`
	s := &fakeSearcher{name: "fake", results: []types.SerpResult{serpResult(1, u)}}

	t.Run("attached", func(t *testing.T) {
		a := newTestAnalyzer(t, s, f)
		a.SetInsighter(&fakeInsighter{text: "competitors favor long-form content"})

		analysis, err := a.Run(context.Background(), "query")
		if err != nil {
			t.Fatal(err)
		}
		if analysis.Insights != "competitors favor long-form content" {
			t.Errorf("insights = %q", analysis.Insights)
		}
	})

	t.Run("failure degrades", func(t *testing.T) {
		a := newTestAnalyzer(t, s, f)
		a.SetInsighter(&fakeInsighter{err: errors.New("model offline")})

		analysis, err := a.Run(context.Background(), "query")
		if err != nil {
			t.Fatal(err)
		}
		if analysis.Insights != "" {
			t.Errorf("insights = %q, want empty", analysis.Insights)
		}
	})
}

func TestRunProgressReachesDone(t *testing.T) {
	u := "https://ok.example.com/"
	f := newFakeFetcher()
	f.pages[u] = `<html><body><p>fine</p></body></html>`
	s := &fakeSearcher{name: "fake", results: []types.SerpResult{serpResult(1, u)}}
	a := newTestAnalyzer(t, s, f)

	if _, err := a.Run(context.Background(), "query"); err != nil {
		t.Fatal(err)
	}

	events := drainProgress(a)
	if len(events) == 0 {
		t.Fatal("no progress events")
	}
	stages := make(map[string]bool)
	for _, ev := range events {
		stages[ev.Stage] = true
		if ev.Percent < 0 || ev.Percent > 100 {
			t.Errorf("percent out of range: %d", ev.Percent)
		}
	}
	for _, want := range []string{types.StageSearching, types.StageFetching, types.StageScoring, types.StageDone} {
		if !stages[want] {
			t.Errorf("missing stage %q in %v", want, stages)
		}
	}
	if last := events[len(events)-1]; last.Stage != types.StageDone || last.Percent != 100 {
		t.Errorf("last event = %+v, want done at 100", last)
	}
}

func TestRunCanceledContext(t *testing.T) {
	u := "https://ok.example.com/"
	f := newFakeFetcher()
	f.pages[u] = `<html><body><p>fine</p></body></html>`
	s := &fakeSearcher{name: "fake", results: []types.SerpResult{serpResult(1, u)}}
	a := newTestAnalyzer(t, s, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Run(ctx, "query"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// --- Stats Tests ---

func TestStatsSnapshot(t *testing.T) {
	s := &Stats{StartTime: time.Now()}
	s.PagesFetched.Add(3)
	s.PagesFailed.Add(1)

	snap := s.Snapshot()
	if snap["pages_fetched"] != int64(3) {
		t.Errorf("pages_fetched = %v", snap["pages_fetched"])
	}
	if snap["pages_failed"] != int64(1) {
		t.Errorf("pages_failed = %v", snap["pages_failed"])
	}
	if _, ok := snap["uptime"]; !ok {
		t.Error("missing uptime")
	}
}
