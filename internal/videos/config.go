// File path: internal/videos/config.go
package videos

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the video search client.
type Config struct {
	Endpoint       string `json:"endpoint"`
	APIKey         string `json:"api_key"`
	MaxResults     int    `json:"max_results"`
	Timeout        time.Duration
	TimeoutString  string `json:"timeout"`
	MaxIdleConns   int    `json:"max_idle_conns"`
	IdleConnTO     time.Duration
	IdleConnTOStr  string `json:"idle_conn_timeout"`
	RequestRetries int    `json:"request_retries"`
}

// Merge overlays non-zero fields of other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Endpoint != "" {
		c.Endpoint = other.Endpoint
	}
	if other.APIKey != "" {
		c.APIKey = other.APIKey
	}
	if other.MaxResults > 0 {
		c.MaxResults = other.MaxResults
	}
	if other.Timeout > 0 {
		c.Timeout = other.Timeout
	}
	if other.MaxIdleConns > 0 {
		c.MaxIdleConns = other.MaxIdleConns
	}
	if other.IdleConnTO > 0 {
		c.IdleConnTO = other.IdleConnTO
	}
	if other.RequestRetries > 0 {
		c.RequestRetries = other.RequestRetries
	}
}

// LoadConfig builds the config from an optional JSON file pointed at by
// VIDEO_CONFIG_FILE plus VIDEO_* environment overrides.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if path := strings.TrimSpace(os.Getenv("VIDEO_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read video config: %w", err)
		}
		fileCfg := &Config{}
		if err := json.Unmarshal(data, fileCfg); err != nil {
			return nil, fmt.Errorf("parse video config: %w", err)
		}
		if fileCfg.TimeoutString != "" {
			d, err := time.ParseDuration(fileCfg.TimeoutString)
			if err != nil {
				return nil, fmt.Errorf("parse video timeout: %w", err)
			}
			fileCfg.Timeout = d
		}
		if fileCfg.IdleConnTOStr != "" {
			d, err := time.ParseDuration(fileCfg.IdleConnTOStr)
			if err != nil {
				return nil, fmt.Errorf("parse video idle conn timeout: %w", err)
			}
			fileCfg.IdleConnTO = d
		}
		cfg.Merge(fileCfg)
	}
	envCfg := &Config{
		Endpoint: strings.TrimSpace(os.Getenv("VIDEO_SEARCH_ENDPOINT")),
		APIKey:   strings.TrimSpace(os.Getenv("VIDEO_SEARCH_API_KEY")),
	}
	if raw := strings.TrimSpace(os.Getenv("VIDEO_MAX_RESULTS")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			envCfg.MaxResults = n
		}
	}
	if raw := strings.TrimSpace(os.Getenv("VIDEO_TIMEOUT")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			envCfg.Timeout = d
		}
	}
	cfg.Merge(envCfg)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxResults <= 0 {
		c.MaxResults = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 16
	}
	if c.IdleConnTO <= 0 {
		c.IdleConnTO = 90 * time.Second
	}
	if c.RequestRetries <= 0 {
		c.RequestRetries = 1
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Config) Enabled() bool {
	return c != nil && strings.TrimSpace(c.Endpoint) != ""
}
