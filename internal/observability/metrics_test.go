package observability

import (
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/serpscope/serpscope/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExposition(t *testing.T) {
	m := NewMetrics(testLogger())
	m.SearchServed("serper")
	m.SearchServed("duckduckgo")
	m.SearchServed("serper")
	m.PageFetched("alpha.example.com", 2048)
	m.PageFetched("beta.example.com", 1024)
	m.PagesFailed.Add(1)
	m.AnalysesTotal.Add(1)
	m.ReportsRendered.Add(2)
	m.BlogsGenerated.Add(1)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"# HELP serpscope_searches_total",
		"# TYPE serpscope_searches_total counter",
		"serpscope_searches_total 3",
		"serpscope_pages_fetched_total 2",
		"serpscope_pages_failed_total 1",
		"serpscope_analyses_total 1",
		"serpscope_reports_rendered_total 2",
		"serpscope_blogs_generated_total 1",
		"serpscope_bytes_downloaded_total 3072",
		`serpscope_searches_by_source_total{source="duckduckgo"} 1`,
		`serpscope_searches_by_source_total{source="serper"} 2`,
		`serpscope_fetches_by_host_total{host="alpha.example.com"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q\n%s", want, body)
		}
	}
}

func TestLabeledSeriesSorted(t *testing.T) {
	m := NewMetrics(testLogger())
	m.SearchServed("serper")
	m.SearchServed("bing")
	m.SearchServed("duckduckgo")

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	bi := strings.Index(body, `source="bing"`)
	di := strings.Index(body, `source="duckduckgo"`)
	si := strings.Index(body, `source="serper"`)
	if bi < 0 || di < 0 || si < 0 || !(bi < di && di < si) {
		t.Errorf("labels not sorted: bing=%d duckduckgo=%d serper=%d", bi, di, si)
	}
}

func TestHostCardinalityCap(t *testing.T) {
	m := NewMetrics(testLogger())
	for i := 0; i < maxHostSeries+10; i++ {
		m.PageFetched(fmt.Sprintf("host%03d.example.com", i), 1)
	}

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	if !strings.Contains(body, `serpscope_fetches_by_host_total{host="other"} 10`) {
		t.Errorf("overflow hosts not folded into other:\n%s", body)
	}
	if got := strings.Count(body, "serpscope_fetches_by_host_total{"); got != maxHostSeries+1 {
		t.Errorf("host series = %d, want %d", got, maxHostSeries+1)
	}
}

func TestRecordRun(t *testing.T) {
	m := NewMetrics(testLogger())

	a := &types.Analysis{
		Query:  "standing desk",
		Source: "duckduckgo",
		Results: []types.ScoredPage{
			{PageMetrics: types.PageMetrics{URL: "https://alpha.example.com/a", StatusCode: 200, PageSizeKB: 2}},
			{PageMetrics: types.PageMetrics{URL: "https://beta.example.com/b", StatusCode: 403, PageSizeKB: 1}},
			{PageMetrics: types.PageMetrics{URL: "https://dead.example.com/c", StatusCode: 429, Error: "HTTP 429: rate limited"}},
			{PageMetrics: types.PageMetrics{URL: "https://gone.example.com/d", Error: "connection refused"}},
		},
	}
	m.RecordRun(a)

	if got := m.AnalysesTotal.Load(); got != 1 {
		t.Errorf("analyses = %d, want 1", got)
	}
	if got := m.SearchesTotal.Load(); got != 1 {
		t.Errorf("searches = %d, want 1", got)
	}
	if got := m.PagesFetched.Load(); got != 2 {
		t.Errorf("fetched = %d, want 2 (the 403 still answered)", got)
	}
	if got := m.PagesFailed.Load(); got != 2 {
		t.Errorf("failed = %d, want 2", got)
	}
	if got := m.PagesBlocked.Load(); got != 2 {
		t.Errorf("blocked = %d, want 2 (403 answered, 429 failed)", got)
	}
	if got := m.BytesDownloaded.Load(); got != 3072 {
		t.Errorf("bytes = %d, want 3072", got)
	}

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`serpscope_searches_by_source_total{source="duckduckgo"} 1`,
		`serpscope_fetches_by_host_total{host="alpha.example.com"} 1`,
		`serpscope_fetches_by_host_total{host="beta.example.com"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q\n%s", want, body)
		}
	}
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics(testLogger())
	m.SearchServed("serper")
	m.PageFetched("example.com", 512)
	m.SearchesFailed.Add(2)
	m.AnalysesStored.Add(1)

	snap := m.Snapshot()
	want := map[string]int64{
		"searches_total":   1,
		"searches_failed":  2,
		"pages_fetched":    1,
		"bytes_downloaded": 512,
		"analyses_stored":  1,
		"analyses_total":   0,
	}
	for k, v := range want {
		if snap[k] != v {
			t.Errorf("snapshot[%q] = %d, want %d", k, snap[k], v)
		}
	}
}
