package fetcher

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/serpscope/serpscope/internal/config"
)

// healthProbeURL is fetched through each proxy to decide whether it is
// usable. The body is ignored.
const (
	healthProbeURL     = "https://httpbin.org/ip"
	healthProbeTimeout = 10 * time.Second
)

// ProxyManager spreads outbound traffic across a pool of upstream
// proxies and tracks which of them are currently usable. Proxies taken
// out of rotation return after a successful health check.
type ProxyManager struct {
	logger *slog.Logger

	mu       sync.Mutex
	pool     []*upstream
	cursor   int
	pickRand bool
}

// upstream is one configured proxy plus its last observed state.
type upstream struct {
	addr    *url.URL
	alive   bool
	lastErr error
	lastUse time.Time
}

// ProxyStatus is a point-in-time snapshot of one proxy, safe to serialize.
type ProxyStatus struct {
	Host    string    `json:"host"`
	Healthy bool      `json:"healthy"`
	LastErr string    `json:"last_error,omitempty"`
	LastUse time.Time `json:"last_use,omitempty"`
}

// NewProxyManager parses the configured proxy URLs into a pool. Every
// entry starts out usable; unparseable URLs are logged and skipped.
func NewProxyManager(cfg *config.ProxyConfig, logger *slog.Logger) *ProxyManager {
	pm := &ProxyManager{
		logger:   logger.With("component", "proxy_manager"),
		pickRand: cfg.Rotation == "random",
	}
	for _, raw := range cfg.URLs {
		u, err := url.Parse(raw)
		if err != nil {
			pm.logger.Warn("skipping unparseable proxy URL", "url", raw, "error", err)
			continue
		}
		pm.pool = append(pm.pool, &upstream{addr: u, alive: true})
	}
	pm.logger.Info("proxy pool ready", "count", len(pm.pool), "rotation", cfg.Rotation)
	return pm
}

// ProxyFunc adapts the manager to http.Transport.Proxy. With the whole
// pool down it falls back to a direct connection rather than failing
// the request.
func (pm *ProxyManager) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		return pm.Next(), nil
	}
}

// Next picks a usable proxy according to the rotation strategy, or nil
// when none are usable.
func (pm *ProxyManager) Next() *url.URL {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	alive := 0
	for _, u := range pm.pool {
		if u.alive {
			alive++
		}
	}
	if alive == 0 {
		return nil
	}

	if pm.pickRand {
		n := rand.Intn(alive)
		for _, u := range pm.pool {
			if !u.alive {
				continue
			}
			if n == 0 {
				u.lastUse = time.Now()
				return u.addr
			}
			n--
		}
	}

	// Round robin, stepping over entries that are out of rotation.
	for range pm.pool {
		pm.cursor = (pm.cursor + 1) % len(pm.pool)
		if u := pm.pool[pm.cursor]; u.alive {
			u.lastUse = time.Now()
			return u.addr
		}
	}
	return nil
}

// MarkFailed takes a proxy out of rotation until the next successful
// health check.
func (pm *ProxyManager) MarkFailed(proxyURL *url.URL, err error) {
	if pm.setState(proxyURL, false, err) {
		pm.logger.Warn("proxy out of rotation", "proxy", proxyURL.Host, "error", err)
	}
}

// MarkHealthy puts a proxy back into rotation.
func (pm *ProxyManager) MarkHealthy(proxyURL *url.URL) {
	pm.setState(proxyURL, true, nil)
}

func (pm *ProxyManager) setState(addr *url.URL, alive bool, err error) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	want := addr.String()
	for _, u := range pm.pool {
		if u.addr.String() == want {
			changed := u.alive != alive
			u.alive = alive
			u.lastErr = err
			return changed
		}
	}
	return false
}

// HealthCheck probes every proxy concurrently and updates the pool.
func (pm *ProxyManager) HealthCheck() {
	pm.mu.Lock()
	addrs := make([]*url.URL, len(pm.pool))
	for i, u := range pm.pool {
		addrs[i] = u.addr
	}
	pm.mu.Unlock()

	var wg sync.WaitGroup
	for _, addr := range addrs {
		wg.Add(1)
		go func(addr *url.URL) {
			defer wg.Done()
			if err := probeProxy(addr); err != nil {
				pm.MarkFailed(addr, err)
				return
			}
			pm.MarkHealthy(addr)
		}(addr)
	}
	wg.Wait()
}

func probeProxy(addr *url.URL) error {
	client := &http.Client{
		Timeout:   healthProbeTimeout,
		Transport: &http.Transport{Proxy: http.ProxyURL(addr)},
	}
	defer client.CloseIdleConnections()

	resp, err := client.Get(healthProbeURL)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Count returns the pool size, including entries out of rotation.
func (pm *ProxyManager) Count() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.pool)
}

// HealthyCount returns how many proxies are currently in rotation.
func (pm *ProxyManager) HealthyCount() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	n := 0
	for _, u := range pm.pool {
		if u.alive {
			n++
		}
	}
	return n
}

// Status returns a snapshot of every proxy for the status API.
func (pm *ProxyManager) Status() []ProxyStatus {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	out := make([]ProxyStatus, 0, len(pm.pool))
	for _, u := range pm.pool {
		s := ProxyStatus{Host: u.addr.Host, Healthy: u.alive, LastUse: u.lastUse}
		if u.lastErr != nil {
			s.LastErr = u.lastErr.Error()
		}
		out = append(out, s)
	}
	return out
}

// AddProxy appends a proxy URL to the pool at runtime. The new entry
// starts out usable.
func (pm *ProxyManager) AddProxy(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL %q: %w", rawURL, err)
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, existing := range pm.pool {
		if existing.addr.String() == u.String() {
			return fmt.Errorf("proxy %s already in pool", u.Host)
		}
	}
	pm.pool = append(pm.pool, &upstream{addr: u, alive: true})
	return nil
}
