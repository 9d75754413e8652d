package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/serpscope/serpscope/internal/scoring"
	"github.com/serpscope/serpscope/internal/types"
)

// HTML renders the styled report page for one render context. The
// chart payload is serialized into the page each call, so two
// concurrent renders never share chart state.
func HTML(rc *RenderContext) (string, error) {
	a := rc.Analysis

	payload, err := json.Marshal(rc.Charts)
	if err != nil {
		return "", fmt.Errorf("marshal chart payload: %w", err)
	}

	view := reportView{
		Query:       a.Query,
		Date:        a.Timestamp.Format("2006-01-02 15:04:05"),
		GeneratedAt: rc.GeneratedAt.Format("2006-01-02 15:04:05"),
		Year:        rc.GeneratedAt.Year(),
		Source:      a.Source,
		Analyzed:    a.Analyzed,
		Returned:    a.SerpReturned,
		Summary:     a.Summary,
		ChartJSON:   template.JS(payload),
		Insights:    a.Insights,
	}

	for i, r := range a.Results {
		title := r.Title
		if title == "" {
			title = displayHost(r.URL, r.Position)
		}
		view.Rows = append(view.Rows, reportRow{
			Rank:     i + 1,
			Position: r.Position,
			Title:    title,
			URL:      r.URL,
			Host:     displayHost(r.URL, r.Position),
			Score:    r.SEOScore,
			Band:     scoring.Bucket(r.SEOScore),
			Words:    r.WordCount,
			Headings: fmt.Sprintf("%d/%d/%d", r.H1Count, r.H2Count, r.H3Count),
			Links:    fmt.Sprintf("%d/%d", r.InternalLinksCount, r.ExternalLinksCount),
			Images:   fmt.Sprintf("%d (%d%%)", r.ImagesCount, r.AltTextPercentage),
			Schema:   r.SchemaCount,
			Findings: Findings(&r.PageMetrics),
			Failed:   r.Failed(),
		})
	}

	rec := a.Recommendations
	view.Advice = append(view.Advice,
		fmt.Sprintf("Target word count: %d (1.2x the %d-word average).", rec.TargetWordCount, a.Summary.AvgWordCount))
	if rec.TopResult != nil {
		view.Advice = append(view.Advice,
			fmt.Sprintf("Deepest competitor: %s at %d words.", displayHost(rec.TopResult.URL, rec.TopResult.Position), rec.TopResult.WordCount))
	}
	view.Advice = append(view.Advice, rec.Advice...)

	var b strings.Builder
	if err := reportTmpl.Execute(&b, view); err != nil {
		return "", fmt.Errorf("execute report template: %w", err)
	}
	return b.String(), nil
}

type reportView struct {
	Query       string
	Date        string
	GeneratedAt string
	Year        int
	Source      string
	Analyzed    int
	Returned    int
	Summary     types.AggregateSummary
	Rows        []reportRow
	Advice      []string
	ChartJSON   template.JS
	Insights    string
}

type reportRow struct {
	Rank     int
	Position int
	Title    string
	URL      string
	Host     string
	Score    int
	Band     string
	Words    int
	Headings string
	Links    string
	Images   string
	Schema   int
	Findings []string
	Failed   bool
}

var reportTmpl = template.Must(template.New("report").Parse(reportHTML))

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>SEO Analysis Report: {{.Query}}</title>
<style>
:root {
  --primary: #2563eb;
  --primary-dark: #1e40af;
  --text: #334155;
  --light-text: #64748b;
  --background: #f8fafc;
  --card-bg: #ffffff;
  --border: #e2e8f0;
  --success: #10b981;
  --warning: #f59e0b;
  --danger: #ef4444;
}
* { box-sizing: border-box; margin: 0; padding: 0; }
body {
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
  line-height: 1.6; color: var(--text); background: var(--background);
}
header {
  background: var(--card-bg); border-bottom: 1px solid var(--border);
  padding: 1rem 2rem; display: flex; justify-content: space-between; align-items: center;
}
header .logo { font-weight: 700; color: var(--primary-dark); font-size: 1.1rem; }
header .date { color: var(--light-text); font-size: 0.875rem; }
.container { max-width: 1100px; margin: 0 auto; padding: 2rem; }
.card {
  background: var(--card-bg); border: 1px solid var(--border); border-radius: 0.5rem;
  padding: 1.5rem; margin-bottom: 1.5rem; box-shadow: 0 1px 2px rgba(15, 23, 42, 0.05);
}
h1 { font-size: 1.5rem; margin-bottom: 0.25rem; color: #0f172a; }
h2 { font-size: 1.15rem; margin: 1.25rem 0 0.75rem; color: #0f172a; }
h3 { font-size: 1rem; margin: 1rem 0 0.5rem; }
.meta { color: var(--light-text); font-size: 0.875rem; margin-bottom: 1rem; }
.stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(140px, 1fr)); gap: 1rem; }
.stat { background: var(--background); border-radius: 0.5rem; padding: 0.75rem 1rem; }
.stat .value { font-size: 1.4rem; font-weight: 700; color: var(--primary-dark); }
.stat .label { font-size: 0.75rem; color: var(--light-text); text-transform: uppercase; }
table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
th, td { text-align: left; padding: 0.5rem 0.75rem; border-bottom: 1px solid var(--border); }
th { color: var(--light-text); font-weight: 600; text-transform: uppercase; font-size: 0.7rem; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
.badge { display: inline-block; padding: 0.1rem 0.5rem; border-radius: 999px; font-size: 0.75rem; font-weight: 600; color: #fff; }
.badge.high { background: var(--success); }
.badge.medium { background: var(--warning); }
.badge.low { background: var(--danger); }
.charts { display: grid; grid-template-columns: 1fr 1fr; gap: 1.5rem; }
canvas { width: 100%; height: 220px; }
ul { padding-left: 1.25rem; }
li { margin-bottom: 0.35rem; }
a { color: var(--primary); text-decoration: none; word-break: break-all; }
.failed td { color: var(--danger); }
pre.insights { white-space: pre-wrap; font-family: inherit; background: var(--background); padding: 1rem; border-radius: 0.5rem; }
footer { text-align: center; color: var(--light-text); font-size: 0.8rem; padding: 1.5rem 0; }
@media print { body { background: #fff; } .card { box-shadow: none; } }
</style>
</head>
<body>
<header>
  <div class="logo">SerpScope Report</div>
  <div class="date">Generated {{.GeneratedAt}}</div>
</header>
<div class="container">

<div class="card">
  <h1>SEO Comparative Analysis: {{.Query}}</h1>
  <div class="meta">Analyzed {{.Date}} via {{.Source}} &middot; {{.Analyzed}} of {{.Returned}} pages</div>
  <div class="stats">
    <div class="stat"><div class="value">{{.Summary.AvgSEOScore}}</div><div class="label">Avg score</div></div>
    <div class="stat"><div class="value">{{.Summary.AvgWordCount}}</div><div class="label">Avg words</div></div>
    <div class="stat"><div class="value">{{printf "%.1f" .Summary.AvgH1Count}}</div><div class="label">Avg H1s</div></div>
    <div class="stat"><div class="value">{{.Summary.AvgInternalLinks}}</div><div class="label">Avg internal links</div></div>
    <div class="stat"><div class="value">{{.Summary.AvgAltTextPercentage}}%</div><div class="label">Avg alt coverage</div></div>
    <div class="stat"><div class="value">{{printf "%.1f" .Summary.AvgSchemaCount}}</div><div class="label">Avg schema types</div></div>
  </div>
</div>

<div class="card">
  <h2>Scores</h2>
  <div class="charts">
    <canvas id="chart-scores"></canvas>
    <canvas id="chart-words"></canvas>
  </div>
</div>

<div class="card">
  <h2>Ranked Comparison</h2>
  <table>
    <thead><tr>
      <th>Rank</th><th>SERP</th><th>Page</th><th>Score</th><th>Band</th>
      <th>Words</th><th>H1/H2/H3</th><th>Links in/out</th><th>Images (alt%)</th><th>Schema</th>
    </tr></thead>
    <tbody>
    {{range .Rows}}
      <tr{{if .Failed}} class="failed"{{end}}>
        <td class="num">{{.Rank}}</td>
        <td class="num">{{.Position}}</td>
        <td><a href="{{.URL}}">{{.Title}}</a></td>
        <td class="num">{{.Score}}</td>
        <td><span class="badge {{.Band}}">{{.Band}}</span></td>
        <td class="num">{{.Words}}</td>
        <td class="num">{{.Headings}}</td>
        <td class="num">{{.Links}}</td>
        <td class="num">{{.Images}}</td>
        <td class="num">{{.Schema}}</td>
      </tr>
    {{end}}
    </tbody>
  </table>
</div>

<div class="card">
  <h2>Per-Page Findings</h2>
  {{range .Rows}}
  <h3>{{.Rank}}. {{.Title}} <span class="badge {{.Band}}">{{.Score}}/100</span></h3>
  <ul>
    {{range .Findings}}<li>{{.}}</li>{{end}}
  </ul>
  {{end}}
</div>

<div class="card">
  <h2>Recommendations</h2>
  <ul>
    {{range .Advice}}<li>{{.}}</li>{{end}}
  </ul>
</div>

{{if .Insights}}
<div class="card">
  <h2>AI Insights</h2>
  <pre class="insights">{{.Insights}}</pre>
</div>
{{end}}

<footer>Generated by SerpScope &copy; {{.Year}}</footer>
</div>

<script>
const charts = {{.ChartJSON}};

function drawBars(canvas, chart) {
  const dpr = window.devicePixelRatio || 1;
  const w = canvas.clientWidth, h = canvas.clientHeight;
  canvas.width = w * dpr; canvas.height = h * dpr;
  const ctx = canvas.getContext('2d');
  ctx.scale(dpr, dpr);

  const pad = { top: 28, right: 8, bottom: 34, left: 8 };
  const plotW = w - pad.left - pad.right;
  const plotH = h - pad.top - pad.bottom;
  const max = Math.max(1, ...chart.values);
  const n = chart.values.length;
  const slot = plotW / Math.max(1, n);
  const barW = Math.min(48, slot * 0.6);

  ctx.fillStyle = '#0f172a';
  ctx.font = '600 12px sans-serif';
  ctx.fillText(chart.title, pad.left, 16);

  chart.values.forEach((v, i) => {
    const x = pad.left + i * slot + (slot - barW) / 2;
    const bh = (v / max) * plotH;
    const y = pad.top + plotH - bh;
    ctx.fillStyle = chart.accent;
    ctx.fillRect(x, y, barW, bh);

    ctx.fillStyle = '#334155';
    ctx.font = '11px sans-serif';
    ctx.textAlign = 'center';
    ctx.fillText(String(v), x + barW / 2, y - 4);
    const label = chart.labels[i].length > 14 ? chart.labels[i].slice(0, 13) + '…' : chart.labels[i];
    ctx.fillText(label, x + barW / 2, pad.top + plotH + 14);
    ctx.textAlign = 'left';
  });
}

charts.forEach(c => {
  const canvas = document.getElementById('chart-' + c.id);
  if (canvas) drawBars(canvas, c);
});
</script>
</body>
</html>
`
