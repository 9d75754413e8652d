package config

import (
	"fmt"
	"net/url"
)

var validSources = map[string]bool{
	"serper": true, "duckduckgo": true, "bing": true,
}

var validBackends = map[string]bool{
	"file": true, "sqlite": true, "mongo": true, "s3": true,
}

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if len(cfg.Search.Sources) == 0 {
		return fmt.Errorf("search.sources must list at least one source")
	}
	for _, s := range cfg.Search.Sources {
		if !validSources[s] {
			return fmt.Errorf("search.sources entry %q is not supported (valid: serper, duckduckgo, bing)", s)
		}
	}
	if cfg.Search.MaxResults < 1 || cfg.Search.MaxResults > 50 {
		return fmt.Errorf("search.max_results must be 1-50, got %d", cfg.Search.MaxResults)
	}
	if cfg.Search.Timeout <= 0 {
		return fmt.Errorf("search.timeout must be > 0")
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.Concurrency < 1 {
		return fmt.Errorf("fetcher.concurrency must be >= 1, got %d", cfg.Fetcher.Concurrency)
	}
	if cfg.Fetcher.Concurrency > 100 {
		return fmt.Errorf("fetcher.concurrency must be <= 100, got %d", cfg.Fetcher.Concurrency)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.PolitenessDelay < 0 {
		return fmt.Errorf("fetcher.politeness_delay must be >= 0")
	}
	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	if cfg.Browser.PoolSize < 1 {
		return fmt.Errorf("browser.pool_size must be >= 1, got %d", cfg.Browser.PoolSize)
	}
	if cfg.Browser.PageTimeout <= 0 {
		return fmt.Errorf("browser.page_timeout must be > 0")
	}

	if cfg.Analysis.ContentPreviewWords < 0 {
		return fmt.Errorf("analysis.content_preview_words must be >= 0")
	}

	// Empty backends means persistence is disabled.
	for _, b := range cfg.Storage.Backends {
		if !validBackends[b] {
			return fmt.Errorf("storage.backends entry %q is not supported (valid: file, sqlite, mongo, s3)", b)
		}
	}
	for _, f := range cfg.Storage.FileFormats {
		if f != "json" && f != "csv" {
			return fmt.Errorf("storage.file_formats entry %q is not supported (valid: json, csv)", f)
		}
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}

	if cfg.AI.Enabled {
		if cfg.AI.Provider != "ollama" && cfg.AI.Provider != "openai" && cfg.AI.Provider != "custom" {
			return fmt.Errorf("ai.provider must be 'ollama', 'openai', or 'custom', got %q", cfg.AI.Provider)
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model must be set when ai.enabled is true")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateQuery checks a search query for use as an analysis input.
func ValidateQuery(query string) error {
	if query == "" {
		return fmt.Errorf("query must not be empty")
	}
	if len(query) > 500 {
		return fmt.Errorf("query too long (%d chars, max 500)", len(query))
	}
	return nil
}
