// File path: internal/cache/config.go
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the roadmap cache store.
type Config struct {
	Path          string `json:"path"`
	TTL           time.Duration
	TTLString     string `json:"ttl"`
	SweepInterval time.Duration
	SweepString   string `json:"sweep_interval"`
	BusyTimeoutMS int    `json:"busy_timeout_ms"`
	MaxOpenConns  int    `json:"max_open_conns"`
	TopLimit      int    `json:"top_limit"`
}

// Merge overlays non-zero fields of other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Path != "" {
		c.Path = other.Path
	}
	if other.TTL > 0 {
		c.TTL = other.TTL
	}
	if other.SweepInterval > 0 {
		c.SweepInterval = other.SweepInterval
	}
	if other.BusyTimeoutMS > 0 {
		c.BusyTimeoutMS = other.BusyTimeoutMS
	}
	if other.MaxOpenConns > 0 {
		c.MaxOpenConns = other.MaxOpenConns
	}
	if other.TopLimit > 0 {
		c.TopLimit = other.TopLimit
	}
}

// LoadConfig builds the config from an optional JSON file pointed at by
// CACHE_CONFIG_FILE plus CACHE_* environment overrides.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if path := strings.TrimSpace(os.Getenv("CACHE_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read cache config: %w", err)
		}
		fileCfg := &Config{}
		if err := json.Unmarshal(data, fileCfg); err != nil {
			return nil, fmt.Errorf("parse cache config: %w", err)
		}
		if fileCfg.TTLString != "" {
			d, err := time.ParseDuration(fileCfg.TTLString)
			if err != nil {
				return nil, fmt.Errorf("parse cache ttl: %w", err)
			}
			fileCfg.TTL = d
		}
		if fileCfg.SweepString != "" {
			d, err := time.ParseDuration(fileCfg.SweepString)
			if err != nil {
				return nil, fmt.Errorf("parse cache sweep interval: %w", err)
			}
			fileCfg.SweepInterval = d
		}
		cfg.Merge(fileCfg)
	}
	envCfg := &Config{Path: strings.TrimSpace(os.Getenv("CACHE_DB_PATH"))}
	if raw := strings.TrimSpace(os.Getenv("CACHE_TTL")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			envCfg.TTL = d
		}
	}
	if raw := strings.TrimSpace(os.Getenv("CACHE_MAX_OPEN_CONNS")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			envCfg.MaxOpenConns = n
		}
	}
	cfg.Merge(envCfg)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Path == "" {
		c.Path = "pathway_cache.db"
	}
	if c.TTL <= 0 {
		c.TTL = 7 * 24 * time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Hour
	}
	if c.BusyTimeoutMS <= 0 {
		c.BusyTimeoutMS = 5000
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 1
	}
	if c.TopLimit <= 0 {
		c.TopLimit = 5
	}
}
