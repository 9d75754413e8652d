package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/serpscope/serpscope/internal/blog"
	"github.com/serpscope/serpscope/internal/storage"
	"github.com/serpscope/serpscope/internal/types"
)

var (
	blogTemplate string
	blogOutput   string
	blogStdout   bool
)

// blogCmd creates the "blog" subcommand.
func blogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blog [query]",
		Short: "Generate an SEO blog draft from the latest stored analysis",
		Long: `Turn the latest stored analysis for a query into a long-form blog
draft: competitor insights fill a placeholder template sized to beat
the competition's word count and link targets.`,
		Args: cobra.ExactArgs(1),
		RunE: runBlog,
	}

	cmd.Flags().StringVarP(&blogTemplate, "template", "t", "", "custom template file (overrides config)")
	cmd.Flags().StringVarP(&blogOutput, "output", "o", "", "output directory (defaults to blog output dir)")
	cmd.Flags().BoolVar(&blogStdout, "stdout", false, "print the draft to stdout instead of a file")

	return cmd
}

// runBlog executes the blog command.
func runBlog(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if blogTemplate != "" {
		cfg.Blog.TemplatePath = blogTemplate
	}
	if blogOutput != "" {
		cfg.Blog.OutputDir = blogOutput
	}
	logger := setupLogger(&cfg.Logging)

	ctx := context.Background()
	store, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()

	a, err := store.Latest(ctx, query)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("no stored analysis for %q — run: serpscope analyze %q", query, query)
		}
		return err
	}

	gen := blog.New(&cfg.Blog, logger)
	md, err := gen.Generate(a)
	if err != nil {
		return fmt.Errorf("generate blog: %w", err)
	}

	if blogStdout {
		fmt.Println(md)
		return nil
	}

	path := filepath.Join(cfg.Blog.OutputDir, gen.Filename(a))
	if err := writeArtifact(path, []byte(md)); err != nil {
		return err
	}

	ins := blog.ExtractInsights(a)
	fmt.Printf("✍️  Blog draft written to %s\n", path)
	fmt.Printf("   Words:     %d (target %d)\n", len(strings.Fields(md)), ins.Targets.WordCount.Target)
	fmt.Printf("   Keyword:   %s (singular %q)\n", a.Query, ins.Singular)
	if len(ins.Competitors) > 0 {
		names := make([]string, 0, len(ins.Competitors))
		for _, c := range ins.Competitors {
			names = append(names, c.Name)
		}
		fmt.Printf("   Beats:     %s\n", strings.Join(names, ", "))
	}
	return nil
}
