package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/serpscope/serpscope/internal/analyzer"
	"github.com/serpscope/serpscope/internal/blog"
	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/fetcher"
	"github.com/serpscope/serpscope/internal/observability"
	"github.com/serpscope/serpscope/internal/storage"
	"github.com/serpscope/serpscope/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleAnalysis(query string, ts time.Time) *types.Analysis {
	a := &types.Analysis{
		Query:        query,
		Timestamp:    ts,
		Source:       "serper",
		Requested:    10,
		SerpReturned: 2,
		Analyzed:     2,
		Results: []types.ScoredPage{
			{
				PageMetrics: types.PageMetrics{
					URL:                "https://alpha.example.com/guide",
					Title:              "Alpha Guide - Complete Walkthrough",
					Description:        strings.Repeat("d", 155),
					WordCount:          2100,
					H1Count:            1,
					InternalLinksCount: 14,
					ExternalLinksCount: 6,
					ImagesCount:        10,
					ImagesWithAltCount: 10,
					SchemaCount:        2,
					ContentPreview:     "Features: adjustable height and a sturdy steel frame.",
				},
				Position:          2,
				SEOScore:          96,
				AltTextPercentage: 100,
			},
			{
				PageMetrics: types.PageMetrics{
					URL:       "https://beta.example.com/desks",
					Title:     "Beta Desks",
					WordCount: 700,
					H1Count:   2,
				},
				Position: 1,
				SEOScore: 44,
			},
		},
		Summary: types.AggregateSummary{
			AvgWordCount: 1400,
			AvgSEOScore:  70,
		},
		Elapsed: 3 * time.Second,
	}
	a.Recommendations = types.Recommendations{
		TargetWordCount: 2310,
		TopResult:       &a.Results[0],
		Advice:          []string{"Write at least 2310 words of in-depth content."},
	}
	return a
}

type fakeRunner struct {
	err      error
	progress chan types.ProgressEvent
	stats    *analyzer.Stats
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		progress: make(chan types.ProgressEvent, 16),
		stats:    &analyzer.Stats{StartTime: time.Now()},
	}
}

func (f *fakeRunner) Run(_ context.Context, query string) (*types.Analysis, error) {
	f.progress <- types.ProgressEvent{Stage: types.StageSearching, Percent: 10, Message: "searching"}
	f.progress <- types.ProgressEvent{Stage: types.StageScoring, Percent: 90, Message: "scoring"}
	if f.err != nil {
		return nil, f.err
	}
	return sampleAnalysis(query, time.Now()), nil
}

func (f *fakeRunner) Progress() <-chan types.ProgressEvent { return f.progress }
func (f *fakeRunner) Stats() *analyzer.Stats               { return f.stats }

type fakeSearcher struct {
	err error
}

func (f *fakeSearcher) Search(_ context.Context, query string, limit int) ([]types.SerpResult, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	results := []types.SerpResult{
		{Position: 1, Title: "Alpha", URL: "https://alpha.example.com/guide"},
		{Position: 2, Title: "Beta", URL: "https://beta.example.com/desks"},
	}
	if limit < len(results) {
		results = results[:limit]
	}
	return results, "serper", nil
}

func (f *fakeSearcher) Sources() []string { return []string{"serper", "duckduckgo"} }

// fakeStore holds runs newest first, keyed by query.
type fakeStore struct {
	byQuery map[string][]*types.Analysis
}

func (f *fakeStore) Latest(_ context.Context, query string) (*types.Analysis, error) {
	runs := f.byQuery[query]
	if len(runs) == 0 {
		return nil, types.ErrNotFound
	}
	return runs[0], nil
}

func (f *fakeStore) History(_ context.Context, query string, limit int) ([]*types.Analysis, error) {
	runs := f.byQuery[query]
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (f *fakeStore) List(_ context.Context) ([]storage.Entry, error) {
	var entries []storage.Entry
	for q, runs := range f.byQuery {
		for _, a := range runs {
			entries = append(entries, storage.Entry{
				Query:     q,
				Slug:      a.Slug(),
				Timestamp: a.Timestamp,
				Pages:     a.Analyzed,
				AvgScore:  a.Summary.AvgSEOScore,
			})
		}
	}
	return entries, nil
}

func (f *fakeStore) Backends() []string { return []string{"file"} }

func newTestServer(t *testing.T, runner Runner, store Store) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Blog.OutputDir = t.TempDir()

	if runner == nil {
		runner = newFakeRunner()
	}
	if store == nil {
		store = &fakeStore{byQuery: map[string][]*types.Analysis{}}
	}

	return New(cfg, Deps{
		Runner:   runner,
		Searcher: &fakeSearcher{},
		Store:    store,
		Blogger:  blog.New(&cfg.Blog, testLogger()),
		Metrics:  observability.NewMetrics(testLogger()),
	}, testLogger())
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// --- Health and stats ---

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, nil)
	w := do(t, s, "GET", "/api/health", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Status   string   `json:"status"`
		Sources  []string `json:"sources"`
		Backends []string `json:"backends"`
	}
	decode(t, w, &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
	if len(resp.Sources) != 2 || resp.Sources[0] != "serper" {
		t.Errorf("sources = %v", resp.Sources)
	}
	if len(resp.Backends) != 1 || resp.Backends[0] != "file" {
		t.Errorf("backends = %v", resp.Backends)
	}
}

func TestStatsIncludesJobCounts(t *testing.T) {
	s := newTestServer(t, nil, nil)
	w := do(t, s, "GET", "/api/stats", nil)

	var resp map[string]any
	decode(t, w, &resp)
	for _, key := range []string{"searches_run", "pages_fetched", "jobs_pending", "jobs_done"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("stats missing %q: %v", key, resp)
		}
	}
}

// --- Search ---

func TestSearch(t *testing.T) {
	s := newTestServer(t, nil, nil)

	t.Run("ok", func(t *testing.T) {
		w := do(t, s, "POST", "/api/search", map[string]any{"query": "ergonomic desk"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Source  string             `json:"source"`
			Count   int                `json:"count"`
			Results []types.SerpResult `json:"results"`
		}
		decode(t, w, &resp)
		if resp.Source != "serper" || resp.Count != 2 {
			t.Errorf("source=%q count=%d", resp.Source, resp.Count)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		w := do(t, s, "POST", "/api/search", map[string]any{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("limit respected", func(t *testing.T) {
		w := do(t, s, "POST", "/api/search", map[string]any{"query": "ergonomic desk", "limit": 1})
		var resp struct {
			Count int `json:"count"`
		}
		decode(t, w, &resp)
		if resp.Count != 1 {
			t.Errorf("count = %d, want 1", resp.Count)
		}
	})
}

func TestSearchAllSourcesFailed(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.deps.Searcher = &fakeSearcher{err: types.ErrAllSourcesFailed}

	w := do(t, s, "POST", "/api/search", map[string]any{"query": "ergonomic desk"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

// --- Analyze jobs ---

func waitForJob(t *testing.T, s *Server, id string) Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		w := do(t, s, "GET", "/api/jobs/"+id, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("job fetch status = %d", w.Code)
		}
		var job Job
		decode(t, w, &job)
		if job.Status == JobDone || job.Status == JobFailed {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return Job{}
}

func TestAnalyzeJobLifecycle(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := do(t, s, "POST", "/api/analyze", map[string]any{"query": "ergonomic desk"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	decode(t, w, &created)
	if created.JobID == "" || created.Status != JobPending {
		t.Fatalf("created = %+v", created)
	}

	job := waitForJob(t, s, created.JobID)
	if job.Status != JobDone {
		t.Fatalf("job = %+v", job)
	}
	if job.Percent != 100 || job.Result == nil {
		t.Errorf("percent=%d result=%v", job.Percent, job.Result != nil)
	}
	if job.Result.Query != "ergonomic desk" {
		t.Errorf("result query = %q", job.Result.Query)
	}
	if job.EndedAt == nil {
		t.Errorf("EndedAt not set")
	}
}

func TestAnalyzeJobFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.err = errors.New("every source blocked")
	s := newTestServer(t, runner, nil)

	w := do(t, s, "POST", "/api/analyze", map[string]any{"query": "ergonomic desk"})
	var created struct {
		JobID string `json:"job_id"`
	}
	decode(t, w, &created)

	job := waitForJob(t, s, created.JobID)
	if job.Status != JobFailed {
		t.Fatalf("status = %q", job.Status)
	}
	if !strings.Contains(job.Error, "every source blocked") {
		t.Errorf("error = %q", job.Error)
	}
	if job.Result != nil {
		t.Errorf("failed job has a result")
	}
}

func TestAnalyzeValidation(t *testing.T) {
	s := newTestServer(t, nil, nil)

	if w := do(t, s, "POST", "/api/analyze", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing query: status = %d", w.Code)
	}
	if w := do(t, s, "POST", "/api/analyze", map[string]any{"query": "   "}); w.Code != http.StatusBadRequest {
		t.Errorf("blank query: status = %d", w.Code)
	}
}

func TestGetJobNotFound(t *testing.T) {
	s := newTestServer(t, nil, nil)
	if w := do(t, s, "GET", "/api/jobs/job-0-0", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

// --- Stored analyses ---

func storeWithRuns(query string, runs ...*types.Analysis) *fakeStore {
	return &fakeStore{byQuery: map[string][]*types.Analysis{query: runs}}
}

func TestLatestAnalysis(t *testing.T) {
	a := sampleAnalysis("ergonomic desk", time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC))
	s := newTestServer(t, nil, storeWithRuns("ergonomic desk", a))

	t.Run("found", func(t *testing.T) {
		w := do(t, s, "GET", "/api/analyses/ergonomic%20desk", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var got types.Analysis
		decode(t, w, &got)
		if got.Query != "ergonomic desk" || len(got.Results) != 2 {
			t.Errorf("got query=%q results=%d", got.Query, len(got.Results))
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if w := do(t, s, "GET", "/api/analyses/nothing", nil); w.Code != http.StatusNotFound {
			t.Errorf("status = %d", w.Code)
		}
	})
}

func TestListAnalyses(t *testing.T) {
	a := sampleAnalysis("ergonomic desk", time.Now())
	s := newTestServer(t, nil, storeWithRuns("ergonomic desk", a))

	w := do(t, s, "GET", "/api/analyses", nil)
	var resp struct {
		Count    int             `json:"count"`
		Analyses []storage.Entry `json:"analyses"`
	}
	decode(t, w, &resp)
	if resp.Count != 1 || resp.Analyses[0].Query != "ergonomic desk" {
		t.Errorf("resp = %+v", resp)
	}
}

// --- Reports ---

func TestReportFormats(t *testing.T) {
	a := sampleAnalysis("ergonomic desk", time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC))
	s := newTestServer(t, nil, storeWithRuns("ergonomic desk", a))

	t.Run("markdown default", func(t *testing.T) {
		w := do(t, s, "GET", "/api/analyses/ergonomic%20desk/report", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
			t.Errorf("Content-Type = %q", ct)
		}
		if !strings.Contains(w.Body.String(), "# Detailed SEO Comparative Analysis") {
			t.Errorf("missing report header:\n%s", w.Body.String()[:200])
		}
		if strings.Contains(w.Body.String(), "## Rank Movement") {
			t.Errorf("movement section present with a single run")
		}
	})

	t.Run("html", func(t *testing.T) {
		w := do(t, s, "GET", "/api/analyses/ergonomic%20desk/report?format=html", nil)
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("Content-Type = %q", ct)
		}
		if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
			t.Errorf("not an HTML document")
		}
	})

	t.Run("pdf", func(t *testing.T) {
		w := do(t, s, "GET", "/api/analyses/ergonomic%20desk/report?format=pdf", nil)
		if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("Content-Type = %q", ct)
		}
		if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
			t.Errorf("body does not start with %%PDF-")
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "seo_comparative_analysis_ergonomic_desk") {
			t.Errorf("Content-Disposition = %q", cd)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		if w := do(t, s, "GET", "/api/analyses/ergonomic%20desk/report?format=docx", nil); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("unknown query", func(t *testing.T) {
		if w := do(t, s, "GET", "/api/analyses/nothing/report", nil); w.Code != http.StatusNotFound {
			t.Errorf("status = %d", w.Code)
		}
	})
}

func TestReportAppendsMovement(t *testing.T) {
	curr := sampleAnalysis("ergonomic desk", time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC))
	prev := sampleAnalysis("ergonomic desk", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	prev.Results[0].SEOScore = 80
	prev.Summary.AvgSEOScore = 62

	s := newTestServer(t, nil, storeWithRuns("ergonomic desk", curr, prev))

	w := do(t, s, "GET", "/api/analyses/ergonomic%20desk/report", nil)
	if !strings.Contains(w.Body.String(), "## Rank Movement") {
		t.Errorf("movement section missing with two runs")
	}
}

// --- Movement ---

func TestMovementEndpoint(t *testing.T) {
	curr := sampleAnalysis("ergonomic desk", time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC))
	prev := sampleAnalysis("ergonomic desk", time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	prev.Results[1].SEOScore = 52

	t.Run("two runs", func(t *testing.T) {
		s := newTestServer(t, nil, storeWithRuns("ergonomic desk", curr, prev))
		w := do(t, s, "GET", "/api/analyses/ergonomic%20desk/movement", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var resp struct {
			Query     string `json:"query"`
			Movements []struct {
				Type string `json:"type"`
			} `json:"movements"`
		}
		decode(t, w, &resp)
		if resp.Query != "ergonomic desk" || len(resp.Movements) != 2 {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("single run", func(t *testing.T) {
		s := newTestServer(t, nil, storeWithRuns("ergonomic desk", curr))
		if w := do(t, s, "GET", "/api/analyses/ergonomic%20desk/movement", nil); w.Code != http.StatusNotFound {
			t.Errorf("status = %d", w.Code)
		}
	})
}

// --- Blog ---

func TestBlogGenerateAndFetch(t *testing.T) {
	a := sampleAnalysis("ergonomic desks", time.Now())
	s := newTestServer(t, nil, storeWithRuns("ergonomic desks", a))

	t.Run("fetch before generate", func(t *testing.T) {
		if w := do(t, s, "GET", "/api/blog/ergonomic%20desks", nil); w.Code != http.StatusNotFound {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("generate", func(t *testing.T) {
		w := do(t, s, "POST", "/api/blog/ergonomic%20desks", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Filename  string `json:"filename"`
			Path      string `json:"path"`
			WordCount int    `json:"word_count"`
			Markdown  string `json:"markdown"`
		}
		decode(t, w, &resp)
		if resp.Filename != "blog_ergonomic_desks.md" {
			t.Errorf("filename = %q", resp.Filename)
		}
		if resp.WordCount == 0 || !strings.Contains(resp.Markdown, "The Ultimate Guide to ergonomic desks") {
			t.Errorf("markdown looks wrong: words=%d", resp.WordCount)
		}
		if _, err := os.Stat(resp.Path); err != nil {
			t.Errorf("blog file not written: %v", err)
		}
		if filepath.Dir(resp.Path) != s.cfg.Blog.OutputDir {
			t.Errorf("path = %q, want under %q", resp.Path, s.cfg.Blog.OutputDir)
		}
	})

	t.Run("fetch after generate", func(t *testing.T) {
		w := do(t, s, "GET", "/api/blog/ergonomic%20desks", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("unknown query", func(t *testing.T) {
		if w := do(t, s, "POST", "/api/blog/nothing", nil); w.Code != http.StatusNotFound {
			t.Errorf("status = %d", w.Code)
		}
	})
}

// --- Proxy ---

func TestProxyStatusDisabled(t *testing.T) {
	s := newTestServer(t, nil, nil)
	w := do(t, s, "GET", "/api/proxy/status", nil)

	var resp struct {
		Enabled bool `json:"enabled"`
	}
	decode(t, w, &resp)
	if resp.Enabled {
		t.Errorf("enabled = true with no proxy manager")
	}
}

func TestAddProxy(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		w := do(t, s, "POST", "/api/proxy", map[string]any{"url": "http://127.0.0.1:8080"})
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", w.Code)
		}
	})

	cfg := config.DefaultConfig()
	cfg.Proxy.Enabled = true
	cfg.Proxy.URLs = []string{"http://127.0.0.1:9050"}

	s := New(cfg, Deps{
		Runner:   newFakeRunner(),
		Searcher: &fakeSearcher{},
		Store:    &fakeStore{byQuery: map[string][]*types.Analysis{}},
		Blogger:  blog.New(&cfg.Blog, testLogger()),
		Proxies:  fetcher.NewProxyManager(&cfg.Proxy, testLogger()),
	}, testLogger())

	t.Run("added", func(t *testing.T) {
		w := do(t, s, "POST", "/api/proxy", map[string]any{"url": "http://127.0.0.1:8080"})
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Total int `json:"total"`
		}
		decode(t, w, &resp)
		if resp.Total != 2 {
			t.Errorf("total = %d, want 2", resp.Total)
		}
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		w := do(t, s, "POST", "/api/proxy", map[string]any{"url": "http://127.0.0.1:8080"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		w := do(t, s, "POST", "/api/proxy", map[string]any{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("status reflects pool", func(t *testing.T) {
		w := do(t, s, "GET", "/api/proxy/status", nil)
		var resp struct {
			Enabled bool                  `json:"enabled"`
			Total   int                   `json:"total"`
			Proxies []fetcher.ProxyStatus `json:"proxies"`
		}
		decode(t, w, &resp)
		if !resp.Enabled || resp.Total != 2 || len(resp.Proxies) != 2 {
			t.Errorf("status after add = %+v", resp)
		}
	})
}

// --- Middleware and pages ---

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if origin := w.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Allow-Origin = %q", origin)
	}
}

func TestDashboardPage(t *testing.T) {
	s := newTestServer(t, nil, nil)
	w := do(t, s, "GET", "/", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "SerpScope Dashboard") || !strings.Contains(body, "/api/analyze") {
		t.Errorf("dashboard page incomplete")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil, nil)

	do(t, s, "POST", "/api/search", map[string]any{"query": "ergonomic desk"})

	w := do(t, s, "GET", "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `serpscope_searches_by_source_total{source="serper"} 1`) {
		t.Errorf("search not counted:\n%s", w.Body.String())
	}
}
