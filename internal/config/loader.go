package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadDotenv loads a local env file before viper reads the environment.
// .env.development wins over .env; missing files are not an error.
func LoadDotenv() {
	if err := godotenv.Load(".env.development"); err == nil {
		return
	}
	_ = godotenv.Load(".env")
}

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("SERPSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare env names kept for drop-in compatibility with existing setups.
	_ = v.BindEnv("search.serper_api_key", "SERPSCOPE_SEARCH_SERPER_API_KEY", "SERPER_API_KEY")
	_ = v.BindEnv("ai.api_key", "SERPSCOPE_AI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("storage.mongo_uri", "SERPSCOPE_STORAGE_MONGO_URI", "MONGO_URI")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("serpscope")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".serpscope"))
		}
	}

	// A missing file is fine unless the path was explicit; a file that
	// exists but fails to read or parse is always an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("search.sources", cfg.Search.Sources)
	v.SetDefault("search.region", cfg.Search.Region)
	v.SetDefault("search.max_results", cfg.Search.MaxResults)
	v.SetDefault("search.timeout", cfg.Search.Timeout)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.concurrency", cfg.Fetcher.Concurrency)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.politeness_delay", cfg.Fetcher.PolitenessDelay)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.retry_delay", cfg.Fetcher.RetryDelay)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.rotation", cfg.Proxy.Rotation)
	v.SetDefault("proxy.health_check", cfg.Proxy.HealthCheck)
	v.SetDefault("proxy.rotate_on_fail", cfg.Proxy.RotateOnFail)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.pool_size", cfg.Browser.PoolSize)
	v.SetDefault("browser.page_timeout", cfg.Browser.PageTimeout)
	v.SetDefault("browser.wait_stable", cfg.Browser.WaitStable)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)

	v.SetDefault("analysis.content_preview_words", cfg.Analysis.ContentPreviewWords)
	v.SetDefault("analysis.history_limit", cfg.Analysis.HistoryLimit)

	v.SetDefault("storage.backends", cfg.Storage.Backends)
	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.file_formats", cfg.Storage.FileFormats)
	v.SetDefault("storage.save_raw", cfg.Storage.SaveRaw)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)
	v.SetDefault("storage.s3_prefix", cfg.Storage.S3Prefix)

	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.allow_origin", cfg.Server.AllowOrigin)
	v.SetDefault("server.job_ttl", cfg.Server.JobTTL)

	v.SetDefault("blog.output_dir", cfg.Blog.OutputDir)

	v.SetDefault("ai.enabled", cfg.AI.Enabled)
	v.SetDefault("ai.provider", cfg.AI.Provider)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.endpoint", cfg.AI.Endpoint)
	v.SetDefault("ai.timeout", cfg.AI.Timeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
