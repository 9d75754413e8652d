// Package server exposes the analysis pipeline over HTTP: a JSON API
// for searches, async analyze jobs, stored results, reports, and blog
// drafts, plus a polling dashboard page and a Prometheus endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/serpscope/serpscope/internal/analyzer"
	"github.com/serpscope/serpscope/internal/blog"
	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/fetcher"
	"github.com/serpscope/serpscope/internal/observability"
	"github.com/serpscope/serpscope/internal/storage"
	"github.com/serpscope/serpscope/internal/types"
)

// Runner executes one full analysis and streams progress while it runs.
type Runner interface {
	Run(ctx context.Context, query string) (*types.Analysis, error)
	Progress() <-chan types.ProgressEvent
	Stats() *analyzer.Stats
}

// Searcher serves SERP-only requests without fetching pages.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.SerpResult, string, error)
	Sources() []string
}

// Store reads saved analyses and names the configured backends.
type Store interface {
	storage.Reader
	Backends() []string
}

// Deps carries the wired pipeline pieces into the server. Proxies and
// Metrics may be nil; the matching endpoints then report accordingly.
type Deps struct {
	Runner   Runner
	Searcher Searcher
	Store    Store
	Blogger  *blog.Generator
	Proxies  *fetcher.ProxyManager
	Metrics  *observability.Metrics
}

// Server is the HTTP front end over a wired analysis pipeline.
type Server struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
	router *gin.Engine

	jobs   map[string]*Job
	jobsMu sync.RWMutex
	jobSeq atomic.Int64

	// runMu serializes analyses so the progress stream always belongs
	// to the active job.
	runMu sync.Mutex

	baseCtx context.Context
	started time.Time
}

// New builds the server and its routes. Gin mode follows GIN_MODE,
// defaulting to release.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger.With("component", "server"),
		jobs:    make(map[string]*Job),
		baseCtx: context.Background(),
		started: time.Now(),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLog())
	r.Use(s.cors())

	r.GET("/", s.handleDashboard)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/stats", s.handleStats)

		api.POST("/search", s.handleSearch)

		api.POST("/analyze", s.handleAnalyze)
		api.GET("/jobs", s.handleListJobs)
		api.GET("/jobs/:id", s.handleGetJob)

		api.GET("/analyses", s.handleListAnalyses)
		api.GET("/analyses/:query", s.handleLatestAnalysis)
		api.GET("/analyses/:query/report", s.handleReport)
		api.GET("/analyses/:query/movement", s.handleMovement)

		api.POST("/blog/:query", s.handleGenerateBlog)
		api.GET("/blog/:query", s.handleGetBlog)

		api.GET("/proxy/status", s.handleProxyStatus)
		api.POST("/proxy/check", s.handleProxyCheck)
		api.POST("/proxy", s.handleAddProxy)
	}

	s.router = r
	return s
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
// Running jobs are cancelled with the context.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx

	sweepDone := make(chan struct{})
	go s.sweepJobs(ctx, sweepDone)

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		<-sweepDone
		return err
	case <-ctx.Done():
	}

	s.logger.Info("API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-sweepDone
	return err
}

// cors mirrors the allow-origin config on every response and
// short-circuits preflight requests.
func (s *Server) cors() gin.HandlerFunc {
	origin := s.cfg.Server.AllowOrigin
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/metrics" {
			return
		}
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).Round(time.Millisecond).String(),
			"ip", c.ClientIP(),
		)
	}
}
