package blog

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/types"
)

// Generator renders blog posts from completed analyses.
type Generator struct {
	cfg    *config.BlogConfig
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Generator. When cfg.TemplatePath is empty the built-in
// template is used.
func New(cfg *config.BlogConfig, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:    cfg,
		logger: logger.With("component", "blog"),
		now:    time.Now,
	}
}

// Generate produces the filled blog post for one analysis.
func (g *Generator) Generate(a *types.Analysis) (string, error) {
	if a == nil || len(a.Results) == 0 {
		return "", types.ErrEmptyAnalysis
	}

	template := DefaultTemplate
	if g.cfg.TemplatePath != "" {
		data, err := os.ReadFile(g.cfg.TemplatePath)
		if err != nil {
			return "", fmt.Errorf("read blog template: %w", err)
		}
		template = string(data)
	}

	insights := ExtractInsights(a)
	vars := Variables(insights, g.now())

	if leftovers := Leftovers(template, vars); len(leftovers) > 0 {
		g.logger.Debug("filling uncovered placeholders",
			"count", len(leftovers),
			"query", a.Query,
		)
	}

	post := Fill(template, vars)
	g.logger.Info("blog post generated",
		"query", a.Query,
		"competitors", len(insights.Competitors),
		"target_words", insights.Targets.WordCount.Target,
	)
	return post, nil
}

// Filename returns the conventional output name, e.g. blog_coffee_mugs.md.
func (g *Generator) Filename(a *types.Analysis) string {
	return fmt.Sprintf("blog_%s.md", a.Slug())
}
