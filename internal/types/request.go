package types

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FetcherType selects how a page request is executed.
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

// PageRequest describes one landing page to fetch and analyze. Requests
// carry the SERP position they came from so the analyzer can slot the
// result back into original order regardless of completion order.
type PageRequest struct {
	// URL is the parsed page address.
	URL *url.URL

	// Header holds extra request headers merged over the fetcher defaults.
	Header http.Header

	// Position is the 1-based rank in the SERP this URL came from.
	Position int

	// MaxRetries is the retry budget for transient fetch failures.
	MaxRetries int

	// RetryCount tracks attempts made so far.
	RetryCount int

	// Timeout overrides the fetcher default when non-zero.
	Timeout time.Duration

	// FetcherType is FetcherHTTP or FetcherBrowser.
	FetcherType string

	// Meta carries per-request values between pipeline stages.
	Meta map[string]any

	// CreatedAt is when the request was built.
	CreatedAt time.Time

	// ID uniquely identifies this request within a run.
	ID string
}

// NewPageRequest validates a raw URL and returns a request with defaults
// applied. Only http and https schemes are accepted.
func NewPageRequest(rawURL string, position int) (*PageRequest, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in %q", u.Scheme, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", rawURL)
	}

	return &PageRequest{
		URL:         u,
		Header:      make(http.Header),
		Position:    position,
		MaxRetries:  2,
		FetcherType: FetcherHTTP,
		Meta:        make(map[string]any),
		CreatedAt:   time.Now(),
		ID:          fmt.Sprintf("%s-%d", u.Host, time.Now().UnixNano()),
	}, nil
}

// URLString returns the full request URL as a string.
func (r *PageRequest) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the lowercase request hostname without a leading "www.".
func (r *PageRequest) Domain() string {
	if r.URL == nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(r.URL.Hostname()), "www.")
}

// Clone returns a deep copy safe to mutate independently, used when a
// request is retried with different settings.
func (r *PageRequest) Clone() *PageRequest {
	clone := *r
	clone.Header = make(http.Header, len(r.Header))
	for k, vs := range r.Header {
		clone.Header[k] = append([]string(nil), vs...)
	}
	clone.Meta = make(map[string]any, len(r.Meta))
	for k, v := range r.Meta {
		clone.Meta[k] = v
	}
	return &clone
}
