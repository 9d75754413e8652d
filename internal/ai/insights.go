// Package ai writes optional LLM commentary for completed analyses.
// It is config-gated and advisory: when the provider is unreachable
// the pipeline ships its deterministic outputs without commentary.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/types"
)

// Provider names the supported LLM backends.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderCustom = "custom"
)

// Generation settings for the insights prompt. Commentary wants low
// temperature: the numbers are already computed, the model only words them.
const (
	insightsTemperature = 0.3
	insightsMaxTokens   = 1024
)

// Client talks to the configured LLM backend.
type Client struct {
	cfg    *config.AIConfig
	client *http.Client
	logger *slog.Logger
}

// NewClient creates an LLM client from configuration.
func NewClient(cfg *config.AIConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With("component", "ai"),
	}
}

// Insights produces comparative commentary on a completed analysis.
// It satisfies the analyzer's Insighter interface.
func (c *Client) Insights(ctx context.Context, a *types.Analysis) (string, error) {
	if a == nil || len(a.Results) == 0 {
		return "", types.ErrEmptyAnalysis
	}

	prompt, err := insightsPrompt(a)
	if err != nil {
		return "", err
	}

	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("insights for %q: %w", a.Query, err)
	}

	text = strings.TrimSpace(text)
	c.logger.Info("insights generated",
		"query", a.Query,
		"provider", c.cfg.Provider,
		"chars", len(text),
	)
	return text, nil
}

// Ping verifies the provider answers at all, for startup checks.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Generate(ctx, "Reply with the single word OK.")
	return err
}

// Generate sends a prompt to the configured provider and returns the
// raw response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	switch c.cfg.Provider {
	case ProviderOllama:
		return c.generateOllama(ctx, prompt)
	case ProviderOpenAI:
		return c.generateOpenAI(ctx, prompt)
	case ProviderCustom:
		return c.generateCustom(ctx, prompt)
	default:
		return "", fmt.Errorf("unsupported LLM provider: %s", c.cfg.Provider)
	}
}

func (c *Client) generateOllama(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.cfg.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": insightsTemperature,
			"num_predict": insightsMaxTokens,
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return result.Response, nil
}

func (c *Client) generateOpenAI(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  insightsMaxTokens,
		"temperature": insightsTemperature,
	}

	body, _ := json.Marshal(payload)
	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return result.Choices[0].Message.Content, nil
}

func (c *Client) generateCustom(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"prompt": prompt,
		"model":  c.cfg.Model,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(respBody), nil
}

// pageComparison is the per-page slice of the prompt payload. Field
// names stay descriptive so smaller models read them correctly.
type pageComparison struct {
	Rank                  int    `json:"rank"`
	Position              int    `json:"serp_position"`
	Title                 string `json:"title"`
	URL                   string `json:"url"`
	TitleLength           int    `json:"title_length"`
	MetaDescriptionLength int    `json:"meta_description_length"`
	WordCount             int    `json:"word_count"`
	H1Count               int    `json:"h1_count"`
	H2Count               int    `json:"h2_count"`
	H3Count               int    `json:"h3_count"`
	InternalLinks         int    `json:"internal_links_count"`
	ExternalLinks         int    `json:"external_links_count"`
	Images                int    `json:"images_count"`
	ImagesWithAlt         int    `json:"images_with_alt_count"`
	SchemaCount           int    `json:"schema_count"`
	SEOScore              int    `json:"seo_score"`
	Error                 string `json:"error,omitempty"`
}

func insightsPrompt(a *types.Analysis) (string, error) {
	comparison := make([]pageComparison, 0, len(a.Results))
	for i, r := range a.Results {
		comparison = append(comparison, pageComparison{
			Rank:                  i + 1,
			Position:              r.Position,
			Title:                 r.Title,
			URL:                   r.URL,
			TitleLength:           utf8.RuneCountInString(r.Title),
			MetaDescriptionLength: utf8.RuneCountInString(r.Description),
			WordCount:             r.WordCount,
			H1Count:               r.H1Count,
			H2Count:               r.H2Count,
			H3Count:               r.H3Count,
			InternalLinks:         r.InternalLinksCount,
			ExternalLinks:         r.ExternalLinksCount,
			Images:                r.ImagesCount,
			ImagesWithAlt:         r.ImagesWithAltCount,
			SchemaCount:           r.SchemaCount,
			SEOScore:              r.SEOScore,
			Error:                 r.Error,
		})
	}

	data, err := json.MarshalIndent(comparison, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal comparison data: %w", err)
	}

	return fmt.Sprintf(`Perform a detailed comparative SEO analysis of the following search results for the query "%s":

%s

Provide:

1. Executive Summary: the overall SEO landscape of these results.
2. Detailed Comparison by SEO Factor: title tags, meta descriptions, content depth, heading structure, internal and external linking, image optimization, schema implementation.
3. Competitive Gap Analysis: what the top-ranking pages are doing that lower-ranking pages are not.
4. Strategic Recommendations: specific guidance for creating a new page that would outrank ALL of these competitors, including optimal title structure, content depth, heading hierarchy, linking strategy, and schema markup.
5. Competitive Edge Strategy: specific tactics to differentiate from these competitors.

Format your response as well-structured markdown with clear sections.`, a.Query, data), nil
}
