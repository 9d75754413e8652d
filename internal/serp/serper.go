package serp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/serpscope/serpscope/internal/types"
)

const serperEndpoint = "https://google.serper.dev/search"

// SerperSource queries Google results through the serper.dev API. It is
// the preferred source: no scraping, no CAPTCHAs, stable JSON.
type SerperSource struct {
	apiKey   string
	endpoint string
	country  string
	lang     string
	client   *http.Client
	logger   *slog.Logger
}

// NewSerperSource creates a Serper API source.
func NewSerperSource(apiKey, regionCode string, client *http.Client, logger *slog.Logger) *SerperSource {
	country, lang := region(regionCode)
	return &SerperSource{
		apiKey:   apiKey,
		endpoint: serperEndpoint,
		country:  country,
		lang:     lang,
		client:   client,
		logger:   logger.With("component", "serper_source"),
	}
}

// Name implements Source.
func (s *SerperSource) Name() string { return "serper" }

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
	GL  string `json:"gl"`
	HL  string `json:"hl"`
}

type serperResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
}

// Search implements Source.
func (s *SerperSource) Search(ctx context.Context, query string, limit int) ([]types.SerpResult, error) {
	payload, err := json.Marshal(serperRequest{Q: query, Num: limit, GL: s.country, HL: s.lang})
	if err != nil {
		return nil, types.NewSearchError(s.Name(), query, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewSearchError(s.Name(), query, err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, types.NewSearchError(s.Name(), query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, types.NewSearchError(s.Name(), query,
			fmt.Errorf("serper API status %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, types.NewSearchError(s.Name(), query, fmt.Errorf("decode response: %w", err))
	}

	results := make([]types.SerpResult, 0, limit)
	for i, org := range parsed.Organic {
		if len(results) >= limit {
			break
		}
		if org.Link == "" {
			continue
		}
		results = append(results, types.SerpResult{
			Position: i + 1,
			URL:      org.Link,
			Title:    org.Title,
			Snippet:  org.Snippet,
		})
	}

	if len(results) == 0 {
		return nil, types.NewSearchError(s.Name(), query, types.ErrNoResults)
	}

	s.logger.Debug("serper search complete", "query", query, "results", len(results))
	return results, nil
}
