package serp

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/serpscope/serpscope/internal/types"
)

const bingEndpoint = "https://www.bing.com/search"

// BingSource scrapes Bing's result page. Last in the default chain: the
// markup is stable but Bing rate-limits faster than DuckDuckGo.
type BingSource struct {
	endpoint   string
	lang       string
	userAgents []string
	client     *http.Client
	logger     *slog.Logger
}

// NewBingSource creates a Bing source.
func NewBingSource(regionCode string, userAgents []string, client *http.Client, logger *slog.Logger) *BingSource {
	country, lang := region(regionCode)
	return &BingSource{
		endpoint:   bingEndpoint,
		lang:       lang + "-" + strings.ToUpper(country),
		userAgents: userAgents,
		client:     client,
		logger:     logger.With("component", "bing_source"),
	}
}

// Name implements Source.
func (s *BingSource) Name() string { return "bing" }

// Search implements Source.
func (s *BingSource) Search(ctx context.Context, query string, limit int) ([]types.SerpResult, error) {
	params := url.Values{
		"q":       {query},
		"count":   {strconv.Itoa(limit * 2)}, // over-request, some blocks are not organic
		"setlang": {s.lang},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, types.NewSearchError(s.Name(), query, err)
	}
	if len(s.userAgents) > 0 {
		req.Header.Set("User-Agent", s.userAgents[rand.Intn(len(s.userAgents))])
	}
	req.Header.Set("Referer", "https://www.bing.com/")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, types.NewSearchError(s.Name(), query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, types.NewSearchError(s.Name(), query,
			fmt.Errorf("status %d: %w", resp.StatusCode, types.ErrBlocked))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewSearchError(s.Name(), query, fmt.Errorf("status %d", resp.StatusCode))
	}

	doc, err := htmlquery.Parse(resp.Body)
	if err != nil {
		return nil, types.NewSearchError(s.Name(), query, fmt.Errorf("parse results page: %w", err))
	}

	if reason := BlockReasonHTML(htmlquery.InnerText(doc)); reason != "" {
		return nil, types.NewSearchError(s.Name(), query,
			fmt.Errorf("%s: %w", reason, types.ErrBlocked))
	}

	blocks, err := htmlquery.QueryAll(doc, "//li[contains(@class, 'b_algo')]")
	if err != nil {
		return nil, types.NewSearchError(s.Name(), query, err)
	}

	var results []types.SerpResult
	for _, block := range blocks {
		if len(results) >= limit {
			break
		}

		link := htmlquery.FindOne(block, ".//h2/a")
		if link == nil {
			continue
		}
		href := htmlquery.SelectAttr(link, "href")
		if !strings.HasPrefix(href, "http") {
			continue
		}
		title := strings.TrimSpace(htmlquery.InnerText(link))

		snippet := ""
		if p := htmlquery.FindOne(block, ".//div[contains(@class, 'b_caption')]//p"); p != nil {
			snippet = strings.TrimSpace(htmlquery.InnerText(p))
		}

		results = append(results, types.SerpResult{
			Position: len(results) + 1,
			URL:      href,
			Title:    title,
			Snippet:  snippet,
		})
	}

	if len(results) == 0 {
		return nil, types.NewSearchError(s.Name(), query, types.ErrNoResults)
	}

	s.logger.Debug("bing search complete", "query", query, "results", len(results))
	return results, nil
}
