package serp

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/serpscope/serpscope/internal/config"
)

// Builder constructs a Source from configuration. Builders return an
// error when the source cannot run with the given config, e.g. a
// missing API key; the chain assembly skips such sources.
type Builder func(cfg *config.Config, client *http.Client, logger *slog.Logger) (Source, error)

// Registry maps source names to builders so new SERP providers can be
// added without touching chain assembly.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds a builder under a name. Registering a taken name is an
// error; use a new name for variants.
func (r *Registry) Register(name string, b Builder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.builders[name]; exists {
		return fmt.Errorf("search source %q already registered", name)
	}
	r.builders[name] = b
	return nil
}

// Lookup returns the builder registered under name.
func (r *Registry) Lookup(name string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[name]
	return b, ok
}

// Names returns all registered source names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mustRegister(r *Registry, name string, b Builder) {
	if err := r.Register(name, b); err != nil {
		panic(err)
	}
}

// defaultRegistry holds the built-in sources.
var defaultRegistry = func() *Registry {
	r := NewRegistry()
	mustRegister(r, "serper", func(cfg *config.Config, client *http.Client, logger *slog.Logger) (Source, error) {
		if cfg.Search.SerperAPIKey == "" {
			return nil, fmt.Errorf("serper source requires an API key")
		}
		return NewSerperSource(cfg.Search.SerperAPIKey, cfg.Search.Region, client, logger), nil
	})
	mustRegister(r, "duckduckgo", func(cfg *config.Config, client *http.Client, logger *slog.Logger) (Source, error) {
		return NewDuckDuckGoSource(cfg.Search.Region, cfg.Fetcher.UserAgents, client, logger), nil
	})
	mustRegister(r, "bing", func(cfg *config.Config, client *http.Client, logger *slog.Logger) (Source, error) {
		return NewBingSource(cfg.Search.Region, cfg.Fetcher.UserAgents, client, logger), nil
	})
	return r
}()

// Register adds a custom source builder to the default registry, making
// it selectable through cfg.Search.Sources.
func Register(name string, b Builder) error {
	return defaultRegistry.Register(name, b)
}

// Known returns the names of all selectable sources.
func Known() []string {
	return defaultRegistry.Names()
}
