package types

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageResponse is the outcome of fetching one landing page. The parsed
// document is built lazily on first use and cached.
type PageResponse struct {
	// StatusCode is the final HTTP status after redirects.
	StatusCode int

	// Headers are the response headers. Nil for browser fetches.
	Headers http.Header

	// Body is the decoded response body.
	Body []byte

	// Request is the request that produced this response.
	Request *PageRequest

	// ContentType is the response Content-Type value.
	ContentType string

	// FinalURL is the URL after redirects, used for internal link checks.
	FinalURL string

	// FetchDuration is wall time spent fetching, including retries' last
	// attempt only.
	FetchDuration time.Duration

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time

	doc *goquery.Document
}

// NewPageResponse builds a response from a completed HTTP exchange.
// The body must already be read and decoded by the caller.
func NewPageResponse(req *PageRequest, httpResp *http.Response, body []byte, duration time.Duration) *PageResponse {
	finalURL := req.URLString()
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		finalURL = httpResp.Request.URL.String()
	}
	return &PageResponse{
		StatusCode:    httpResp.StatusCode,
		Headers:       httpResp.Header,
		Body:          body,
		Request:       req,
		ContentType:   httpResp.Header.Get("Content-Type"),
		FinalURL:      finalURL,
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// NewBrowserPageResponse builds a response from a rendered browser page,
// where no http.Response exists.
func NewBrowserPageResponse(req *PageRequest, statusCode int, body []byte, finalURL string, duration time.Duration) *PageResponse {
	if finalURL == "" {
		finalURL = req.URLString()
	}
	return &PageResponse{
		StatusCode:    statusCode,
		Headers:       make(http.Header),
		Body:          body,
		Request:       req,
		ContentType:   "text/html",
		FinalURL:      finalURL,
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// Document parses the body as HTML, caching the result.
func (r *PageResponse) Document() (*goquery.Document, error) {
	if r.doc != nil {
		return r.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	r.doc = doc
	return r.doc, nil
}

// SizeKB returns the body size in kilobytes, rounded to one decimal.
func (r *PageResponse) SizeKB() float64 {
	kb := float64(len(r.Body)) / 1024.0
	return float64(int(kb*10+0.5)) / 10
}

// IsSuccess reports a 2xx status.
func (r *PageResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect reports a 3xx status.
func (r *PageResponse) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsClientError reports a 4xx status.
func (r *PageResponse) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError reports a 5xx status.
func (r *PageResponse) IsServerError() bool {
	return r.StatusCode >= 500
}
