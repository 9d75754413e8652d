package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for SerpScope.
type Config struct {
	Search   SearchConfig   `mapstructure:"search"   yaml:"search"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Proxy    ProxyConfig    `mapstructure:"proxy"    yaml:"proxy"`
	Browser  BrowserConfig  `mapstructure:"browser"  yaml:"browser"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"`
	Blog     BlogConfig     `mapstructure:"blog"     yaml:"blog"`
	AI       AIConfig       `mapstructure:"ai"       yaml:"ai"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// SearchConfig controls SERP retrieval and the fallback chain.
type SearchConfig struct {
	// Sources is the fallback order. Each entry is one of
	// "serper", "duckduckgo", "bing".
	Sources      []string      `mapstructure:"sources"        yaml:"sources"`
	SerperAPIKey string        `mapstructure:"serper_api_key" yaml:"serper_api_key"`
	Region       string        `mapstructure:"region"         yaml:"region"`
	MaxResults   int           `mapstructure:"max_results"    yaml:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"        yaml:"timeout"`
}

// FetcherConfig controls the landing-page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	Concurrency     int           `mapstructure:"concurrency"       yaml:"concurrency"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay"  yaml:"politeness_delay"`
	MaxRetries      int           `mapstructure:"max_retries"       yaml:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"       yaml:"retry_delay"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	Enabled      bool     `mapstructure:"enabled"        yaml:"enabled"`
	Rotation     string   `mapstructure:"rotation"       yaml:"rotation"`
	URLs         []string `mapstructure:"urls"           yaml:"urls"`
	HealthCheck  bool     `mapstructure:"health_check"   yaml:"health_check"`
	RotateOnFail bool     `mapstructure:"rotate_on_fail" yaml:"rotate_on_fail"`
}

// BrowserConfig controls the headless browser fetcher.
type BrowserConfig struct {
	Headless    bool          `mapstructure:"headless"     yaml:"headless"`
	PoolSize    int           `mapstructure:"pool_size"    yaml:"pool_size"`
	PageTimeout time.Duration `mapstructure:"page_timeout" yaml:"page_timeout"`
	WaitStable  time.Duration `mapstructure:"wait_stable"  yaml:"wait_stable"`
	Stealth     bool          `mapstructure:"stealth"      yaml:"stealth"`
	BinPath     string        `mapstructure:"bin_path"     yaml:"bin_path"`
}

// AnalysisConfig controls extraction and history behavior.
type AnalysisConfig struct {
	ContentPreviewWords int `mapstructure:"content_preview_words" yaml:"content_preview_words"`
	HistoryLimit        int `mapstructure:"history_limit"         yaml:"history_limit"`
}

// StorageConfig controls persistence. Every listed backend receives
// each completed analysis.
type StorageConfig struct {
	// Backends may contain "file", "sqlite", "mongo", "s3". Empty
	// disables persistence.
	Backends  []string `mapstructure:"backends"   yaml:"backends"`
	OutputDir string   `mapstructure:"output_dir" yaml:"output_dir"`

	// FileFormats selects file backend outputs: "json", "csv".
	FileFormats []string `mapstructure:"file_formats" yaml:"file_formats"`

	// SaveRaw also writes the raw SERP result list next to the analysis.
	SaveRaw bool `mapstructure:"save_raw" yaml:"save_raw"`

	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`

	S3Bucket    string `mapstructure:"s3_bucket"     yaml:"s3_bucket"`
	S3Prefix    string `mapstructure:"s3_prefix"     yaml:"s3_prefix"`
	S3Region    string `mapstructure:"s3_region"     yaml:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"   yaml:"s3_endpoint"`
	S3PathStyle bool   `mapstructure:"s3_path_style" yaml:"s3_path_style"`
}

// ServerConfig controls the HTTP API and dashboard.
type ServerConfig struct {
	Host        string        `mapstructure:"host"         yaml:"host"`
	Port        int           `mapstructure:"port"         yaml:"port"`
	AllowOrigin string        `mapstructure:"allow_origin" yaml:"allow_origin"`
	JobTTL      time.Duration `mapstructure:"job_ttl"      yaml:"job_ttl"`
}

// BlogConfig controls blog template generation.
type BlogConfig struct {
	TemplatePath string `mapstructure:"template_path" yaml:"template_path"`
	OutputDir    string `mapstructure:"output_dir"    yaml:"output_dir"`
}

// AIConfig controls LLM-written insights.
type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"   yaml:"enabled"`
	Provider string        `mapstructure:"provider"  yaml:"provider"`
	Model    string        `mapstructure:"model"     yaml:"model"`
	Endpoint string        `mapstructure:"endpoint"  yaml:"endpoint"`
	APIKey   string        `mapstructure:"api_key"   yaml:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"   yaml:"timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Sources:    []string{"serper", "duckduckgo", "bing"},
			Region:     "us-en",
			MaxResults: 5,
			Timeout:    15 * time.Second,
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			Concurrency:     5,
			RequestTimeout:  20 * time.Second,
			PolitenessDelay: 500 * time.Millisecond,
			MaxRetries:      2,
			RetryDelay:      2 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Proxy: ProxyConfig{
			Enabled:      false,
			Rotation:     "round_robin",
			HealthCheck:  true,
			RotateOnFail: true,
		},
		Browser: BrowserConfig{
			Headless:    true,
			PoolSize:    2,
			PageTimeout: 30 * time.Second,
			WaitStable:  2 * time.Second,
			Stealth:     true,
		},
		Analysis: AnalysisConfig{
			ContentPreviewWords: 150,
			HistoryLimit:        20,
		},
		Storage: StorageConfig{
			Backends:        []string{"file"},
			OutputDir:       "./output",
			FileFormats:     []string{"json"},
			SaveRaw:         true,
			SQLitePath:      "./output/serpscope.db",
			MongoDatabase:   "serpscope",
			MongoCollection: "analyses",
			S3Prefix:        "analyses/",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			AllowOrigin: "*",
			JobTTL:      time.Hour,
		},
		Blog: BlogConfig{
			OutputDir: "./output",
		},
		AI: AIConfig{
			Enabled:  false,
			Provider: "ollama",
			Model:    "llama3.2",
			Endpoint: "http://localhost:11434",
			Timeout:  60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
