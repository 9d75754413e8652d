package serp

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/serpscope/serpscope/internal/types"
)

const duckduckgoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoSource scrapes the DuckDuckGo HTML endpoint, which serves
// plain markup without JavaScript and tolerates automated clients far
// better than Google does.
type DuckDuckGoSource struct {
	endpoint   string
	kl         string
	userAgents []string
	client     *http.Client
	logger     *slog.Logger
}

// NewDuckDuckGoSource creates a DuckDuckGo HTML source.
func NewDuckDuckGoSource(regionCode string, userAgents []string, client *http.Client, logger *slog.Logger) *DuckDuckGoSource {
	country, lang := region(regionCode)
	return &DuckDuckGoSource{
		endpoint:   duckduckgoEndpoint,
		kl:         country + "-" + lang,
		userAgents: userAgents,
		client:     client,
		logger:     logger.With("component", "duckduckgo_source"),
	}
}

// Name implements Source.
func (s *DuckDuckGoSource) Name() string { return "duckduckgo" }

// Search implements Source.
func (s *DuckDuckGoSource) Search(ctx context.Context, query string, limit int) ([]types.SerpResult, error) {
	params := url.Values{
		"q":   {query},
		"kl":  {s.kl}, // region-language
		"kp":  {"-2"}, // no safe search
		"kaf": {"1"},  // full content
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, types.NewSearchError(s.Name(), query, err)
	}
	s.setHeaders(req)

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

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, types.NewSearchError(s.Name(), query, fmt.Errorf("parse results page: %w", err))
	}

	if reason := BlockReason(doc); reason != "" {
		return nil, types.NewSearchError(s.Name(), query,
			fmt.Errorf("%s: %w", reason, types.ErrBlocked))
	}

	var results []types.SerpResult
	doc.Find(".result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(results) >= limit {
			return false
		}
		if sel.HasClass("result--ad") {
			return true
		}

		titleEl := sel.Find(".result__title").First()
		if titleEl.Length() == 0 {
			return true
		}
		title := strings.TrimSpace(titleEl.Text())

		resultURL := s.resultURL(sel, titleEl)
		if resultURL == "" {
			return true
		}

		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		results = append(results, types.SerpResult{
			Position: len(results) + 1,
			URL:      resultURL,
			Title:    title,
			Snippet:  snippet,
		})
		return true
	})

	if len(results) == 0 {
		return nil, types.NewSearchError(s.Name(), query, types.ErrNoResults)
	}

	s.logger.Debug("duckduckgo search complete", "query", query, "results", len(results))
	return results, nil
}

// resultURL recovers the landing URL from a result block. Anchors go
// through a /l/?uddg= redirect; the encoded parameter holds the real URL.
// Older markup exposes the bare host in .result__url instead.
func (s *DuckDuckGoSource) resultURL(sel, titleEl *goquery.Selection) string {
	if href, ok := titleEl.Find("a").First().Attr("href"); ok && href != "" {
		if u, err := url.Parse(href); err == nil {
			if uddg := u.Query().Get("uddg"); uddg != "" {
				if decoded, err := url.QueryUnescape(uddg); err == nil {
					return decoded
				}
			}
			if u.IsAbs() && strings.HasPrefix(u.Scheme, "http") {
				return href
			}
		}
	}

	if text := strings.TrimSpace(sel.Find(".result__url").First().Text()); text != "" {
		return "https://" + text
	}
	return ""
}

func (s *DuckDuckGoSource) setHeaders(req *http.Request) {
	if len(s.userAgents) > 0 {
		req.Header.Set("User-Agent", s.userAgents[rand.Intn(len(s.userAgents))])
	}
	req.Header.Set("Referer", "https://duckduckgo.com/")
	req.Header.Set("DNT", "1")
}
