// File path: internal/videos/client.go
package videos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nextsteplk/pathway/internal/common"
	"github.com/nextsteplk/pathway/internal/common/telemetry"
)

// Video is a single search result attached to a roadmap step.
type Video struct {
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Duration  string `json:"duration"`
	Views     string `json:"views"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
}

// Searcher finds videos for a topic.
type Searcher interface {
	Search(ctx context.Context, topic string, max int) ([]Video, error)
	Available() bool
}

// Client talks to an external video search service over HTTP.
type Client struct {
	cfg    *Config
	http   *http.Client
	mu     sync.RWMutex
	online bool
}

// NewClient constructs a search client from the config. A nil or disabled
// config yields a client that reports unavailable.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
		cfg.applyDefaults()
	}
	transport := &http.Transport{
		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: cfg.IdleConnTO,
	}
	client := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout, Transport: transport},
	}
	if cfg.Enabled() {
		client.probe()
	}
	return client
}

// NewFromEnv builds a client from environment configuration.
func NewFromEnv() (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewClient(cfg), nil
}

// probe checks the search service health endpoint once at startup. Failure is
// logged, not fatal; Search calls will re-surface errors per request.
func (c *Client) probe() {
	logger := common.Logger()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.Endpoint, "/")+"/health", nil)
	if err != nil {
		logger.Warn("videos: health probe request failed", "error", err)
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("videos: search service unreachable", "endpoint", c.cfg.Endpoint, "error", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.mu.Lock()
		c.online = true
		c.mu.Unlock()
		logger.Info("videos: search service available", "endpoint", c.cfg.Endpoint)
	} else {
		logger.Warn("videos: search service health check failed", "status", resp.StatusCode)
	}
}

// Available reports whether the search service responded to the last probe.
func (c *Client) Available() bool {
	if c == nil || !c.cfg.Enabled() {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []Video `json:"results"`
	Error   string  `json:"error,omitempty"`
}

// Search queries the service for videos about the topic, returning at most
// max results.
func (c *Client) Search(ctx context.Context, topic string, max int) ([]Video, error) {
	if c == nil || !c.cfg.Enabled() {
		return nil, fmt.Errorf("video search not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("empty topic")
	}
	if max <= 0 {
		max = c.cfg.MaxResults
	}
	start := time.Now()
	body, err := json.Marshal(searchRequest{Query: topic, MaxResults: max})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.RequestRetries; attempt++ {
		results, err := c.doSearch(ctx, body)
		if err == nil {
			telemetry.RecordVideoSearch(time.Since(start), nil)
			if len(results) > max {
				results = results[:max]
			}
			c.mu.Lock()
			c.online = true
			c.mu.Unlock()
			return results, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	telemetry.RecordVideoSearch(time.Since(start), lastErr)
	return nil, fmt.Errorf("search videos for %q: %w", topic, lastErr)
}

func (c *Client) doSearch(ctx context.Context, body []byte) ([]Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.Endpoint, "/")+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("search error: %s", parsed.Error)
	}
	return parsed.Results, nil
}
