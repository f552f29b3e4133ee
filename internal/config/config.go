package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/linkloom/loom/internal/core/model"
)

type ServerConfig struct {
	Port string `toml:"port"`
}

type SourceConfig struct {
	Endpoint       string `toml:"endpoint"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type CacheConfig struct {
	Path string `toml:"path"`
}

type CrawlConfig struct {
	BatchDelayMillis int `toml:"batch_delay_ms"`

	// Depth overrides individual levels of the built-in table, keyed
	// by depth level ("1".."10").
	Depth map[string]model.DepthLevel `toml:"depth"`
}

type Config struct {
	Server ServerConfig `toml:"server"`
	Source SourceConfig `toml:"source"`
	Cache  CacheConfig  `toml:"cache"`
	Crawl  CrawlConfig  `toml:"crawl"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Source: SourceConfig{
			Endpoint:       "https://query.wikidata.org/sparql",
			UserAgent:      "loom/1.0 (knowledge graph crawler)",
			TimeoutSeconds: 30,
		},
		Cache: CacheConfig{Path: "data/cache"},
		Crawl: CrawlConfig{BatchDelayMillis: 500},
	}
}

// Load reads the TOML config at path on top of the defaults, then
// applies environment overrides. A missing file is not an error; the
// defaults plus environment stand alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("SPARQL_ENDPOINT"); v != "" {
		c.Source.Endpoint = v
	}
	if v := os.Getenv("SPARQL_USER_AGENT"); v != "" {
		c.Source.UserAgent = v
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
}

func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Crawl.BatchDelayMillis) * time.Millisecond
}

// DepthTable merges configured level overrides into the default table.
func (c *Config) DepthTable() model.DepthTable {
	table := model.DefaultDepthTable()
	for key, level := range c.Crawl.Depth {
		d, err := strconv.Atoi(key)
		if err != nil || d < 1 {
			continue
		}
		table[d] = level
	}
	return table
}
