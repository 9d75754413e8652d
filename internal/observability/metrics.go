package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/serpscope/serpscope/internal/types"
)

// Metrics tracks service-level counters and serves them in Prometheus
// text format. Worker-level detail (retries, active workers) lives in
// the analyzer's own stats and is exposed through the stats API.
type Metrics struct {
	// Search metrics
	SearchesTotal  atomic.Int64
	SearchesFailed atomic.Int64

	// Page fetch metrics
	PagesFetched atomic.Int64
	PagesFailed  atomic.Int64
	PagesBlocked atomic.Int64

	// Analysis metrics
	AnalysesTotal  atomic.Int64
	AnalysesFailed atomic.Int64

	// Output metrics
	ReportsRendered atomic.Int64
	BlogsGenerated  atomic.Int64
	AnalysesStored  atomic.Int64

	BytesDownloaded atomic.Int64

	mu              sync.Mutex
	searchesPerSrc  map[string]int64
	fetchesPerHost  map[string]int64
	hostCardinality int

	logger *slog.Logger
}

// maxHostSeries caps the per-host fetch series so a large crawl cannot
// grow the exposition unbounded. Overflow lands in the "other" label.
const maxHostSeries = 64

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		searchesPerSrc: make(map[string]int64),
		fetchesPerHost: make(map[string]int64),
		logger:         logger.With("component", "metrics"),
	}
}

// SearchServed records one successful SERP response from a named source.
func (m *Metrics) SearchServed(source string) {
	m.SearchesTotal.Add(1)
	m.mu.Lock()
	m.searchesPerSrc[source]++
	m.mu.Unlock()
}

// PageFetched records one successful page fetch against its host.
func (m *Metrics) PageFetched(host string, bytes int64) {
	m.PagesFetched.Add(1)
	m.BytesDownloaded.Add(bytes)

	m.mu.Lock()
	if _, ok := m.fetchesPerHost[host]; !ok {
		if m.hostCardinality >= maxHostSeries {
			host = "other"
		} else {
			m.hostCardinality++
		}
	}
	m.fetchesPerHost[host]++
	m.mu.Unlock()
}

// RecordRun folds one completed analysis into the counters: the SERP
// lookup that fed it and the outcome of every page in the result set.
// Pages answered with 403 or 429 count as blocked whether or not the
// record ultimately failed.
func (m *Metrics) RecordRun(a *types.Analysis) {
	m.AnalysesTotal.Add(1)
	if a.Source != "" {
		m.SearchServed(a.Source)
	}

	for i := range a.Results {
		p := &a.Results[i]
		if p.StatusCode == http.StatusForbidden || p.StatusCode == http.StatusTooManyRequests {
			m.PagesBlocked.Add(1)
		}
		if p.Failed() {
			m.PagesFailed.Add(1)
			continue
		}
		m.PageFetched(p.Host(), int64(p.PageSizeKB*1024))
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"serpscope_searches_total", "Total SERP searches served", m.SearchesTotal.Load()},
		{"serpscope_searches_failed_total", "Total SERP searches where every source failed", m.SearchesFailed.Load()},
		{"serpscope_pages_fetched_total", "Total pages fetched", m.PagesFetched.Load()},
		{"serpscope_pages_failed_total", "Total pages that failed after retries", m.PagesFailed.Load()},
		{"serpscope_pages_blocked_total", "Total fetches answered with an anti-bot status", m.PagesBlocked.Load()},
		{"serpscope_analyses_total", "Total analyses completed", m.AnalysesTotal.Load()},
		{"serpscope_analyses_failed_total", "Total analyses aborted", m.AnalysesFailed.Load()},
		{"serpscope_reports_rendered_total", "Total reports rendered", m.ReportsRendered.Load()},
		{"serpscope_blogs_generated_total", "Total blog drafts generated", m.BlogsGenerated.Load()},
		{"serpscope_analyses_stored_total", "Total analyses handed to persistence", m.AnalysesStored.Load()},
		{"serpscope_bytes_downloaded_total", "Total bytes downloaded", m.BytesDownloaded.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}

	m.writeLabeled(w, "serpscope_searches_by_source_total", "SERP searches served, by source", "source", m.snapshotLabels(&m.searchesPerSrc))
	m.writeLabeled(w, "serpscope_fetches_by_host_total", "Pages fetched, by host", "host", m.snapshotLabels(&m.fetchesPerHost))
}

func (m *Metrics) snapshotLabels(src *map[string]int64) map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(*src))
	for k, v := range *src {
		out[k] = v
	}
	return out
}

func (m *Metrics) writeLabeled(w http.ResponseWriter, name, help, label string, values map[string]int64) {
	if len(values) == 0 {
		return
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	for _, k := range keys {
		fmt.Fprintf(w, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

// StartServer starts the standalone metrics HTTP server. The API
// server mounts the same handler at /metrics, so this only runs when
// metrics are enabled without the serve command.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all scalar metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"searches_total":   m.SearchesTotal.Load(),
		"searches_failed":  m.SearchesFailed.Load(),
		"pages_fetched":    m.PagesFetched.Load(),
		"pages_failed":     m.PagesFailed.Load(),
		"pages_blocked":    m.PagesBlocked.Load(),
		"analyses_total":   m.AnalysesTotal.Load(),
		"analyses_failed":  m.AnalysesFailed.Load(),
		"reports_rendered": m.ReportsRendered.Load(),
		"blogs_generated":  m.BlogsGenerated.Load(),
		"analyses_stored":  m.AnalysesStored.Load(),
		"bytes_downloaded": m.BytesDownloaded.Load(),
	}
}
