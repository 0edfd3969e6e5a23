package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsGate enforces robots.txt directives with one cached decision per host.
// A host whose robots policy cannot be fetched or parsed is treated as fully
// permissive; the degraded mode is logged once and cached so the failing
// fetch is not repeated.
type RobotsGate struct {
	client *http.Client
	cache  sync.Map // host -> *robotstxt.RobotsData, nil entry means fail-open
	logger *zap.Logger
}

// NewRobotsGate builds a RobotsGate with a bounded robots fetch timeout.
func NewRobotsGate(logger *zap.Logger) *RobotsGate {
	return &RobotsGate{
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Allowed implements RobotsPolicy. Unparseable URLs are rejected; everything
// else fails open.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL, userAgent string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	data := g.load(ctx, parsed, userAgent)
	if data == nil {
		return true
	}
	group := data.FindGroup(userAgent)
	if group == nil {
		return true
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (g *RobotsGate) load(ctx context.Context, parsed *url.URL, userAgent string) *robotstxt.RobotsData {
	hostKey := strings.ToLower(parsed.Host)
	if cached, ok := g.cache.Load(hostKey); ok {
		data, _ := cached.(*robotstxt.RobotsData)
		return data
	}

	data, err := g.fetch(ctx, parsed, userAgent)
	if err != nil {
		g.logger.Warn("robots policy unreachable; allowing access",
			zap.String("host", parsed.Host), zap.Error(err))
		data = nil
	}
	g.cache.Store(hostKey, data)
	return data
}

func (g *RobotsGate) fetch(ctx context.Context, parsed *url.URL, userAgent string) (*robotstxt.RobotsData, error) {
	robotsURL := url.URL{
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
		Path:   "/robots.txt",
	}
	if robotsURL.Scheme == "" {
		robotsURL.Scheme = "https"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			g.logger.Debug("failed to close robots response body", zap.Error(cerr))
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	return data, nil
}

// AllowAllPolicy is a null RobotsPolicy used when robots enforcement is off.
type AllowAllPolicy struct{}

// Allowed always reports true.
func (AllowAllPolicy) Allowed(context.Context, string, string) bool { return true }
