package server

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>SerpScope Dashboard</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Inter', -apple-system, system-ui, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; }
        .header { background: linear-gradient(135deg, #1e293b, #334155); padding: 1.5rem 2rem; border-bottom: 1px solid #475569; display: flex; justify-content: space-between; align-items: center; }
        .header h1 { font-size: 1.5rem; background: linear-gradient(135deg, #38bdf8, #818cf8); background-clip: text; -webkit-background-clip: text; -webkit-text-fill-color: transparent; }
        .header .status { padding: 0.5rem 1rem; border-radius: 9999px; font-size: 0.875rem; font-weight: 600; background: #854d0e; color: #fde047; }
        .status.running { background: #166534; color: #4ade80; }
        .status.failed { background: #991b1b; color: #fca5a5; }
        .analyze { display: flex; gap: 0.75rem; padding: 2rem 2rem 0; }
        .analyze input { flex: 1; max-width: 480px; padding: 0.75rem 1rem; border-radius: 8px; border: 1px solid #334155; background: #1e293b; color: #f1f5f9; font-size: 1rem; }
        .analyze input:focus { outline: none; border-color: #38bdf8; }
        .analyze button { padding: 0.75rem 1.5rem; border-radius: 8px; border: none; background: linear-gradient(135deg, #38bdf8, #818cf8); color: #0f172a; font-weight: 700; font-size: 1rem; cursor: pointer; }
        .analyze button:disabled { opacity: 0.5; cursor: wait; }
        .progress { margin: 1rem 2rem 0; display: none; }
        .progress .bar { height: 10px; border-radius: 5px; background: #1e293b; border: 1px solid #334155; overflow: hidden; }
        .progress .fill { height: 100%; width: 0; background: linear-gradient(90deg, #38bdf8, #818cf8); transition: width 0.4s; }
        .progress .msg { font-size: 0.875rem; color: #94a3b8; margin-top: 0.4rem; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(240px, 1fr)); gap: 1rem; padding: 2rem; }
        .card { background: #1e293b; border: 1px solid #334155; border-radius: 12px; padding: 1.5rem; transition: transform 0.2s; }
        .card:hover { transform: translateY(-2px); }
        .card .label { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; color: #94a3b8; margin-bottom: 0.5rem; }
        .card .value { font-size: 2rem; font-weight: 700; color: #f1f5f9; }
        .card .sub { font-size: 0.875rem; color: #64748b; margin-top: 0.25rem; }
        .card.accent { border-color: #38bdf8; }
        .card.accent .value { color: #38bdf8; }
        .card.success { border-color: #4ade80; }
        .card.success .value { color: #4ade80; }
        .card.error { border-color: #f87171; }
        .card.error .value { color: #f87171; }
        .recent { padding: 0 2rem 2rem; }
        .recent h2 { font-size: 1rem; color: #94a3b8; margin-bottom: 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; }
        table { width: 100%; border-collapse: collapse; background: #1e293b; border: 1px solid #334155; border-radius: 12px; overflow: hidden; }
        th, td { text-align: left; padding: 0.75rem 1rem; font-size: 0.875rem; border-bottom: 1px solid #293548; }
        th { color: #94a3b8; text-transform: uppercase; font-size: 0.7rem; letter-spacing: 0.05em; }
        tr:last-child td { border-bottom: none; }
        td a { color: #38bdf8; text-decoration: none; margin-right: 0.6rem; }
        td a:hover { text-decoration: underline; }
        .footer { text-align: center; padding: 1rem; color: #475569; font-size: 0.75rem; }
    </style>
</head>
<body>
    <div class="header">
        <h1>SerpScope Dashboard</h1>
        <span class="status" id="status">Idle</span>
    </div>
    <form class="analyze" id="analyze-form">
        <input type="text" id="query" placeholder="Search query to analyze, e.g. ergonomic desk" autocomplete="off" required>
        <button type="submit" id="analyze-btn">Analyze</button>
    </form>
    <div class="progress" id="progress">
        <div class="bar"><div class="fill" id="progress-fill"></div></div>
        <div class="msg" id="progress-msg"></div>
    </div>
    <div class="grid" id="stats">
        <div class="card accent"><div class="label">Searches Run</div><div class="value" id="searches_run">0</div></div>
        <div class="card success"><div class="label">Pages Fetched</div><div class="value" id="pages_fetched">0</div></div>
        <div class="card error"><div class="label">Pages Failed</div><div class="value" id="pages_failed">0</div></div>
        <div class="card success"><div class="label">Analyses Done</div><div class="value" id="analyses_done">0</div></div>
        <div class="card error"><div class="label">Analyses Failed</div><div class="value" id="analyses_failed">0</div></div>
        <div class="card"><div class="label">Bytes Downloaded</div><div class="value" id="bytes_downloaded">0</div><div class="sub" id="bytes_human"></div></div>
        <div class="card accent"><div class="label">Active Workers</div><div class="value" id="active_workers">0</div></div>
        <div class="card"><div class="label">Uptime</div><div class="value" id="uptime">0s</div></div>
    </div>
    <div class="recent">
        <h2>Recent Analyses</h2>
        <table>
            <thead><tr><th>Query</th><th>When</th><th>Pages</th><th>Avg Score</th><th>Open</th></tr></thead>
            <tbody id="recent-body"><tr><td colspan="5">No stored analyses yet.</td></tr></tbody>
        </table>
    </div>
    <div class="footer">SerpScope — Auto-refreshes every 2s</div>
    <script>
        let activeJob = null;

        document.getElementById('analyze-form').addEventListener('submit', async (e) => {
            e.preventDefault();
            const query = document.getElementById('query').value.trim();
            if (!query || activeJob) return;
            const btn = document.getElementById('analyze-btn');
            btn.disabled = true;
            try {
                const r = await fetch('/api/analyze', { method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify({query}) });
                const d = await r.json();
                if (!r.ok) throw new Error(d.error || 'analyze failed');
                activeJob = d.job_id;
                document.getElementById('progress').style.display = 'block';
                pollJob();
            } catch (err) {
                setStatus('failed', 'Error');
                document.getElementById('progress-msg').textContent = err.message;
                btn.disabled = false;
            }
        });

        async function pollJob() {
            if (!activeJob) return;
            try {
                const r = await fetch('/api/jobs/' + activeJob);
                const j = await r.json();
                document.getElementById('progress-fill').style.width = (j.percent || 0) + '%';
                document.getElementById('progress-msg').textContent = (j.stage ? j.stage + ': ' : '') + (j.message || '');
                if (j.status === 'done' || j.status === 'failed') {
                    setStatus(j.status === 'done' ? 'running' : 'failed', j.status === 'done' ? 'Done' : 'Failed');
                    activeJob = null;
                    document.getElementById('analyze-btn').disabled = false;
                    refreshRecent();
                    return;
                }
                setStatus('running', 'Analyzing');
                setTimeout(pollJob, 1000);
            } catch (e) { setTimeout(pollJob, 2000); }
        }

        function setStatus(cls, text) {
            const el = document.getElementById('status');
            el.textContent = text;
            el.className = 'status ' + cls;
        }

        async function refreshStats() {
            try {
                const r = await fetch('/api/stats');
                const d = await r.json();
                ['searches_run','pages_fetched','pages_failed','analyses_done','analyses_failed','active_workers'].forEach(k => {
                    const el = document.getElementById(k);
                    if (el && d[k] !== undefined) el.textContent = Number(d[k]).toLocaleString();
                });
                const b = document.getElementById('bytes_downloaded');
                if (b && d.bytes_downloaded !== undefined) { b.textContent = Number(d.bytes_downloaded).toLocaleString(); document.getElementById('bytes_human').textContent = humanize(d.bytes_downloaded); }
                const u = document.getElementById('uptime');
                if (u && d.uptime) u.textContent = d.uptime;
            } catch(e) {}
        }

        async function refreshRecent() {
            try {
                const r = await fetch('/api/analyses');
                const d = await r.json();
                const body = document.getElementById('recent-body');
                if (!d.analyses || d.analyses.length === 0) return;
                body.innerHTML = d.analyses.slice(0, 10).map(a => {
                    const q = encodeURIComponent(a.query);
                    return '<tr><td>' + escapeHTML(a.query) + '</td><td>' + new Date(a.timestamp).toLocaleString() + '</td><td>' + a.pages + '</td><td>' + a.avg_score + '</td>' +
                        '<td><a href="/api/analyses/' + q + '/report?format=html" target="_blank">html</a>' +
                        '<a href="/api/analyses/' + q + '/report?format=pdf">pdf</a>' +
                        '<a href="/api/analyses/' + q + '">json</a></td></tr>';
                }).join('');
            } catch(e) {}
        }

        function escapeHTML(s) { const div = document.createElement('div'); div.textContent = s; return div.innerHTML; }
        function humanize(b) { const u=['B','KB','MB','GB']; let i=0; while(b>=1024&&i<u.length-1){b/=1024;i++;} return b.toFixed(1)+' '+u[i]; }

        setInterval(refreshStats, 2000);
        refreshStats();
        refreshRecent();
    </script>
</body>
</html>`
