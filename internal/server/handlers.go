package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/monitor"
	"github.com/serpscope/serpscope/internal/report"
	"github.com/serpscope/serpscope/internal/types"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"version":  config.Version,
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"sources":  s.deps.Searcher.Sources(),
		"backends": s.deps.Store.Backends(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats := s.deps.Runner.Stats().Snapshot()

	var pending, running, done, failed int
	for _, j := range s.listJobs() {
		switch j.Status {
		case JobPending:
			pending++
		case JobRunning:
			running++
		case JobDone:
			done++
		case JobFailed:
			failed++
		}
	}
	stats["jobs_pending"] = pending
	stats["jobs_running"] = running
	stats["jobs_done"] = done
	stats["jobs_failed"] = failed

	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleSearch(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
		Limit int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = s.cfg.Search.MaxResults
	}

	results, source, err := s.deps.Searcher.Search(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		if s.deps.Metrics != nil {
			s.deps.Metrics.SearchesFailed.Add(1)
		}
		s.jsonError(c, err)
		return
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.SearchServed(source)
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   req.Query,
		"source":  source,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrEmptyQuery.Error()})
		return
	}

	job := s.startJob(query)
	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (s *Server) handleListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, s.listJobs())
}

func (s *Server) handleGetJob(c *gin.Context) {
	job, ok := s.getJob(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) handleListAnalyses(c *gin.Context) {
	entries, err := s.deps.Store.List(c.Request.Context())
	if err != nil {
		s.jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(entries),
		"analyses": entries,
	})
}

func (s *Server) handleLatestAnalysis(c *gin.Context) {
	a, err := s.deps.Store.Latest(c.Request.Context(), c.Param("query"))
	if err != nil {
		s.jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) handleReport(c *gin.Context) {
	query := c.Param("query")
	a, err := s.deps.Store.Latest(c.Request.Context(), query)
	if err != nil {
		s.jsonError(c, err)
		return
	}

	format := c.DefaultQuery("format", "md")
	switch format {
	case "md", "markdown":
		md := report.Markdown(a)
		// Movement is only meaningful against a previous run.
		if runs, err := s.deps.Store.History(c.Request.Context(), query, 2); err == nil && len(runs) >= 2 {
			if d := monitor.Compare(runs[1], runs[0]); d.HasMovement() {
				md += "\n" + d.Markdown()
			}
		}
		s.countReport()
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))

	case "html":
		html, err := report.HTML(report.NewRenderContext(a))
		if err != nil {
			s.jsonError(c, err)
			return
		}
		s.countReport()
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))

	case "pdf":
		pdf, err := report.PDF(report.NewRenderContext(a))
		if err != nil {
			s.jsonError(c, err)
			return
		}
		s.countReport()
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(a, "pdf")))
		c.Data(http.StatusOK, "application/pdf", pdf)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be md, html, or pdf"})
	}
}

func (s *Server) countReport() {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ReportsRendered.Add(1)
	}
}

func (s *Server) handleMovement(c *gin.Context) {
	d, err := monitor.LatestDiff(c.Request.Context(), s.deps.Store, c.Param("query"))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "need at least two stored runs to compare"})
			return
		}
		s.jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleGenerateBlog(c *gin.Context) {
	a, err := s.deps.Store.Latest(c.Request.Context(), c.Param("query"))
	if err != nil {
		s.jsonError(c, err)
		return
	}

	md, err := s.deps.Blogger.Generate(a)
	if err != nil {
		s.jsonError(c, err)
		return
	}

	filename := s.deps.Blogger.Filename(a)
	path := filepath.Join(s.cfg.Blog.OutputDir, filename)
	if err := os.MkdirAll(s.cfg.Blog.OutputDir, 0o755); err == nil {
		if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
			s.logger.Warn("blog file write failed", "path", path, "error", err)
		}
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.BlogsGenerated.Add(1)
	}

	c.JSON(http.StatusOK, gin.H{
		"query":      a.Query,
		"filename":   filename,
		"path":       path,
		"word_count": len(strings.Fields(md)),
		"markdown":   md,
	})
}

func (s *Server) handleGetBlog(c *gin.Context) {
	a, err := s.deps.Store.Latest(c.Request.Context(), c.Param("query"))
	if err != nil {
		s.jsonError(c, err)
		return
	}

	path := filepath.Join(s.cfg.Blog.OutputDir, s.deps.Blogger.Filename(a))
	md, err := os.ReadFile(path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no generated blog for this query; POST /api/blog first"})
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", md)
}

func (s *Server) handleProxyStatus(c *gin.Context) {
	if s.deps.Proxies == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled": true,
		"total":   s.deps.Proxies.Count(),
		"healthy": s.deps.Proxies.HealthyCount(),
		"proxies": s.deps.Proxies.Status(),
	})
}

func (s *Server) handleProxyCheck(c *gin.Context) {
	if s.deps.Proxies == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	s.deps.Proxies.HealthCheck()
	c.JSON(http.StatusOK, gin.H{
		"enabled": true,
		"total":   s.deps.Proxies.Count(),
		"healthy": s.deps.Proxies.HealthyCount(),
		"proxies": s.deps.Proxies.Status(),
	})
}

func (s *Server) handleAddProxy(c *gin.Context) {
	if s.deps.Proxies == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "proxy support is disabled; enable it in config and restart"})
		return
	}

	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	if err := s.deps.Proxies.AddProxy(req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"total":   s.deps.Proxies.Count(),
		"healthy": s.deps.Proxies.HealthyCount(),
	})
}

func (s *Server) handleDashboard(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardHTML))
}

// jsonError maps pipeline sentinels onto HTTP statuses.
func (s *Server) jsonError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrEmptyQuery), errors.Is(err, types.ErrInvalidConfig):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrEmptyAnalysis):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrAllSourcesFailed), errors.Is(err, types.ErrNoResults):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
