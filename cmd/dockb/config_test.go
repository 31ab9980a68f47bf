package main_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/dockb"
	main "github.com/fwojciec/dockb/cmd/dockb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := main.LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))

		require.NoError(t, err)
		assert.Equal(t, main.DefaultConfig(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		data := `root: /srv/dockb
embedding:
  provider: openai
  model: text-embedding-3-small
  base_url: http://localhost:8080/v1
crawl:
  concurrency: 8
  fetch_timeout: 5s
search:
  top_k: 20
extractor:
  mode: readability
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		cfg, err := main.LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "/srv/dockb", cfg.Root)
		assert.Equal(t, main.ProviderOpenAI, cfg.Embedding.Provider)
		assert.Equal(t, "http://localhost:8080/v1", cfg.Embedding.BaseURL)
		assert.Equal(t, 8, cfg.Crawl.Concurrency)
		assert.Equal(t, 5*time.Second, cfg.Crawl.FetchTimeout)
		assert.Equal(t, 20, cfg.Search.TopK)
		assert.Equal(t, main.ModeReadability, cfg.Extractor.Mode)
		// Unset fields keep their defaults.
		assert.Equal(t, main.DefaultConfig().Crawl.UserAgent, cfg.Crawl.UserAgent)
		assert.True(t, cfg.Extractor.Markdown)
	})

	t.Run("malformed file is invalid", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("crawl: [1, 2"), 0o600))

		_, err := main.LoadConfig(path)

		assert.Equal(t, dockb.EINVALID, dockb.ErrorCode(err))
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*main.Config)
		valid  bool
	}{
		{name: "defaults", modify: func(*main.Config) {}, valid: true},
		{name: "no embeddings", modify: func(c *main.Config) { c.Embedding.Provider = main.ProviderNone }, valid: true},
		{name: "unknown provider", modify: func(c *main.Config) { c.Embedding.Provider = "cohere" }},
		{name: "unknown extractor", modify: func(c *main.Config) { c.Extractor.Mode = "regex" }},
		{name: "empty root", modify: func(c *main.Config) { c.Root = "" }},
		{name: "negative concurrency", modify: func(c *main.Config) { c.Crawl.Concurrency = -1 }},
		{name: "negative top k", modify: func(c *main.Config) { c.Search.TopK = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := main.DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, dockb.EINVALID, dockb.ErrorCode(err))
			}
		})
	}
}
