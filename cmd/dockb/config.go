package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/crawl"
	dockbhttp "github.com/fwojciec/dockb/http"
	"github.com/fwojciec/dockb/kb"
	"github.com/fwojciec/dockb/lru"
	"gopkg.in/yaml.v3"
)

// Embedding providers.
const (
	ProviderNone   = "none"
	ProviderStatic = "static"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Content isolation modes.
const (
	ModeSelector    = "selector"
	ModeTrafilatura = "trafilatura"
	ModeReadability = "readability"
)

// Config is the content of the configuration file.
type Config struct {
	// Root is the directory holding the knowledge bases.
	Root      string          `yaml:"root"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Search    SearchConfig    `yaml:"search"`
	Extractor ExtractorConfig `yaml:"extractor"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	// Dimensions is the vector size. Zero uses the provider default.
	Dimensions int `yaml:"dimensions"`

	// BaseURL points the openai provider at a compatible server.
	BaseURL   string `yaml:"base_url"`
	CacheSize int    `yaml:"cache_size"`
}

// CrawlConfig controls fetching.
type CrawlConfig struct {
	Concurrency       int           `yaml:"concurrency"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`
	IndexTimeout      time.Duration `yaml:"index_timeout"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	UserAgent         string        `yaml:"user_agent"`
}

// SearchConfig controls searches.
type SearchConfig struct {
	TopK    int           `yaml:"top_k"`
	Timeout time.Duration `yaml:"timeout"`
}

// ExtractorConfig controls content extraction.
type ExtractorConfig struct {
	Mode     string `yaml:"mode"`
	Markdown bool   `yaml:"markdown"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Root: defaultRoot(),
		Embedding: EmbeddingConfig{
			Provider:  ProviderStatic,
			CacheSize: lru.DefaultSize,
		},
		Crawl: CrawlConfig{
			Concurrency:       crawl.DefaultConcurrency,
			RequestsPerSecond: crawl.DefaultRequestsPerSecond,
			FetchTimeout:      dockbhttp.DefaultFetchTimeout,
			IndexTimeout:      kb.DefaultIndexTimeout,
			MaxBodyBytes:      dockbhttp.DefaultMaxBodyBytes,
			UserAgent:         dockbhttp.DefaultUserAgent,
		},
		Search: SearchConfig{
			TopK:    dockb.DefaultTopK,
			Timeout: kb.DefaultSearchTimeout,
		},
		Extractor: ExtractorConfig{
			Mode:     ModeSelector,
			Markdown: true,
		},
	}
}

// LoadConfig reads the configuration file at path over the defaults.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, dockb.Errorf(dockb.EINVALID, "parse config %s: %v", path, err)
	}
	return cfg, nil
}

// Validate returns an error if the configuration contains invalid fields.
func (c *Config) Validate() error {
	if c.Root == "" {
		return dockb.Errorf(dockb.EINVALID, "root directory required")
	}
	switch c.Embedding.Provider {
	case ProviderNone, ProviderStatic, ProviderGemini, ProviderOpenAI:
	default:
		return dockb.Errorf(dockb.EINVALID, "unknown embedding provider %q", c.Embedding.Provider)
	}
	switch c.Extractor.Mode {
	case ModeSelector, ModeTrafilatura, ModeReadability:
	default:
		return dockb.Errorf(dockb.EINVALID, "unknown extractor mode %q", c.Extractor.Mode)
	}
	if c.Crawl.Concurrency < 0 {
		return dockb.Errorf(dockb.EINVALID, "crawl concurrency must not be negative")
	}
	if c.Search.TopK < 0 {
		return dockb.Errorf(dockb.EINVALID, "search top_k must not be negative")
	}
	return nil
}

func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dockb"
	}
	return filepath.Join(home, ".dockb")
}

func defaultConfigPath() string {
	return filepath.Join(defaultRoot(), "config.yaml")
}
