// Package crawler implements the polite, concurrency-bounded fetch layer.
package crawler

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// RawDocument is the immutable record of one fetch attempt. It is created
// exactly once per received HTTP response and never mutated afterwards,
// except that the scheduler stamps FilePath when persisting it.
type RawDocument struct {
	URL        string            `json:"url"`
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	FetchedAt  time.Time         `json:"fetched_at"`
	FilePath   string            `json:"file_path,omitempty"`
	Notes      []string          `json:"notes,omitempty"`
}

// CollapseHeaders flattens an http.Header into a case-insensitively keyed map,
// joining repeated values with a comma.
func CollapseHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(h))
	for key, values := range h {
		out[http.CanonicalHeaderKey(key)] = strings.Join(values, ", ")
	}
	return out
}

// RobotsPolicy decides whether a URL may be fetched by the given agent.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL, userAgent string) bool
}

// SlotGate blocks a caller until the politeness window for a host has
// elapsed, then stamps the host's last-request time.
type SlotGate interface {
	WaitSlot(ctx context.Context, host string) error
}

// Fetcher fetches a single URL and returns the resulting document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (RawDocument, error)
}

// DocumentSink persists fetched documents.
type DocumentSink interface {
	Save(ctx context.Context, doc *RawDocument) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
