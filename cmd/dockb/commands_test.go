package main_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fwojciec/dockb"
	main "github.com/fwojciec/dockb/cmd/dockb"
	"github.com/fwojciec/dockb/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDeps returns dependencies writing to fresh buffers.
func newDeps(svc dockb.KnowledgeBaseService) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:     context.Background(),
		Stdout:  stdout,
		Stderr:  stderr,
		Config:  main.DefaultConfig(),
		Service: svc,
	}, stdout, stderr
}

func TestCreateCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("creates knowledge base with config", func(t *testing.T) {
		t.Parallel()

		var got *dockb.KnowledgeBase
		svc := &mock.KnowledgeBaseService{
			CreateKnowledgeBaseFn: func(_ context.Context, kb *dockb.KnowledgeBase) (*dockb.KnowledgeBase, error) {
				got = kb
				return kb, nil
			},
		}
		deps, stdout, _ := newDeps(svc)

		cmd := &main.CreateCmd{Name: "react", Description: "React docs", Scope: "/learn", NoEmbeddings: true, Threshold: 0.4}
		require.NoError(t, cmd.Run(deps))

		require.NotNil(t, got)
		assert.Equal(t, "react", got.Name)
		assert.Equal(t, "React docs", got.Config.Description)
		assert.Equal(t, "/learn", got.Config.ScopePrefix)
		assert.False(t, got.Config.EmbeddingsEnabled)
		assert.InDelta(t, 0.4, got.Config.SimilarityThreshold, 1e-9)
		assert.Contains(t, stdout.String(), `Created knowledge base "react"`)
	})

	t.Run("reports conflict", func(t *testing.T) {
		t.Parallel()

		svc := &mock.KnowledgeBaseService{
			CreateKnowledgeBaseFn: func(_ context.Context, kb *dockb.KnowledgeBase) (*dockb.KnowledgeBase, error) {
				return nil, dockb.Errorf(dockb.ECONFLICT, "knowledge base %q already exists", kb.Name)
			},
		}
		deps, _, stderr := newDeps(svc)

		err := (&main.CreateCmd{Name: "react"}).Run(deps)

		assert.Equal(t, dockb.ECONFLICT, dockb.ErrorCode(err))
		assert.Contains(t, stderr.String(), "already exists")
	})
}

func TestIndexCmd_Run(t *testing.T) {
	t.Parallel()

	var gotURLs []string
	var gotOpts dockb.IndexPagesOptions
	svc := &mock.KnowledgeBaseService{
		IndexPagesFn: func(_ context.Context, name string, urls []string, opts dockb.IndexPagesOptions) (*dockb.IndexReport, error) {
			gotURLs = urls
			gotOpts = opts
			return &dockb.IndexReport{
				PagesIndexed: 1,
				Errors:       []dockb.PageError{{URL: "https://example.com/b", Reason: "HTTP 404"}},
			}, nil
		},
	}
	deps, stdout, _ := newDeps(svc)

	cmd := &main.IndexCmd{
		Name:  "docs",
		URLs:  []string{"https://example.com/a", "https://example.com/b"},
		Force: true,
		MetadataFlags: main.MetadataFlags{
			Category: "internal",
			Tags:     []string{"api"},
			Priority: 8,
		},
	}
	require.NoError(t, cmd.Run(deps))

	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, gotURLs)
	assert.True(t, gotOpts.ForceRefresh)
	assert.Equal(t, "internal", gotOpts.Metadata.Category)
	assert.Equal(t, []string{"api"}, gotOpts.Metadata.Tags)
	assert.Equal(t, 8, gotOpts.Metadata.Priority)
	assert.Contains(t, stdout.String(), "Indexed 1 pages, skipped 0, 1 failed")
	assert.Contains(t, stdout.String(), "https://example.com/b: HTTP 404")
}

func TestCrawlCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("passes limits and scope", func(t *testing.T) {
		t.Parallel()

		var gotTarget string
		var gotOpts dockb.IndexDomainOptions
		svc := &mock.KnowledgeBaseService{
			IndexDomainFn: func(_ context.Context, name, target string, opts dockb.IndexDomainOptions) (*dockb.IndexReport, error) {
				gotTarget = target
				gotOpts = opts
				return &dockb.IndexReport{PagesIndexed: 12, PagesSkipped: 3}, nil
			},
		}
		deps, stdout, _ := newDeps(svc)

		cmd := &main.CrawlCmd{Name: "docs", URL: "https://example.com/docs/", MaxPages: 50, MaxDepth: 0, Scope: "/docs"}
		require.NoError(t, cmd.Run(deps))

		assert.Equal(t, "https://example.com/docs/", gotTarget)
		assert.Equal(t, 50, gotOpts.MaxPages)
		require.NotNil(t, gotOpts.MaxDepth)
		assert.Equal(t, 0, *gotOpts.MaxDepth)
		assert.Equal(t, "/docs", gotOpts.ScopePrefix)
		assert.Contains(t, stdout.String(), "Indexed 12 pages, skipped 3")
	})

	t.Run("notes incomplete crawl", func(t *testing.T) {
		t.Parallel()

		svc := &mock.KnowledgeBaseService{
			IndexDomainFn: func(context.Context, string, string, dockb.IndexDomainOptions) (*dockb.IndexReport, error) {
				return &dockb.IndexReport{PagesIndexed: 2, Incomplete: true}, nil
			},
		}
		deps, stdout, _ := newDeps(svc)

		require.NoError(t, (&main.CrawlCmd{Name: "docs", URL: "https://example.com"}).Run(deps))

		assert.Contains(t, stdout.String(), "Stopped early")
	})
}

func TestSearchCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("uses configured top k", func(t *testing.T) {
		t.Parallel()

		var gotTopK int
		svc := &mock.KnowledgeBaseService{
			SearchFn: func(_ context.Context, name, query string, topK int) ([]*dockb.SearchResult, error) {
				gotTopK = topK
				return []*dockb.SearchResult{{
					DocumentID: "https://example.com/hooks",
					Title:      "Hooks",
					Score:      0.9,
				}}, nil
			},
		}
		deps, stdout, _ := newDeps(svc)
		deps.Config.Search.TopK = 7

		require.NoError(t, (&main.SearchCmd{Name: "docs", Query: "hooks"}).Run(deps))

		assert.Equal(t, 7, gotTopK)
		assert.Contains(t, stdout.String(), "1. Hooks")
		assert.Contains(t, stdout.String(), "https://example.com/hooks")
	})

	t.Run("flag overrides top k", func(t *testing.T) {
		t.Parallel()

		var gotTopK int
		svc := &mock.KnowledgeBaseService{
			SearchFn: func(_ context.Context, name, query string, topK int) ([]*dockb.SearchResult, error) {
				gotTopK = topK
				return nil, nil
			},
		}
		deps, stdout, _ := newDeps(svc)

		require.NoError(t, (&main.SearchCmd{Name: "docs", Query: "hooks", TopK: 3}).Run(deps))

		assert.Equal(t, 3, gotTopK)
		assert.Contains(t, stdout.String(), "No results.")
	})

	t.Run("reports unknown knowledge base", func(t *testing.T) {
		t.Parallel()

		svc := &mock.KnowledgeBaseService{
			SearchFn: func(context.Context, string, string, int) ([]*dockb.SearchResult, error) {
				return nil, dockb.Errorf(dockb.ENOTFOUND, "knowledge base %q not found", "docs")
			},
		}
		deps, _, stderr := newDeps(svc)

		err := (&main.SearchCmd{Name: "docs", Query: "hooks"}).Run(deps)

		assert.Equal(t, dockb.ENOTFOUND, dockb.ErrorCode(err))
		assert.Contains(t, stderr.String(), `error: knowledge base "docs" not found`)
	})
}

func TestDocsCmd_Run(t *testing.T) {
	t.Parallel()

	var gotFilter dockb.DocumentFilter
	svc := &mock.KnowledgeBaseService{
		ListDocumentsFn: func(_ context.Context, name string, filter dockb.DocumentFilter) ([]*dockb.DocumentSummary, error) {
			gotFilter = filter
			return []*dockb.DocumentSummary{{
				ID:        "https://example.com/a",
				Title:     "Page A",
				Category:  "api",
				Chars:     120,
				IndexedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
			}}, nil
		},
	}
	deps, stdout, _ := newDeps(svc)

	cmd := &main.DocsCmd{Name: "docs", Category: "api", Query: "page", Limit: 10}
	require.NoError(t, cmd.Run(deps))

	require.NotNil(t, gotFilter.Category)
	assert.Equal(t, "api", *gotFilter.Category)
	require.NotNil(t, gotFilter.Query)
	assert.Equal(t, "page", *gotFilter.Query)
	assert.Equal(t, 10, gotFilter.Limit)
	assert.Contains(t, stdout.String(), "https://example.com/a")
	assert.Contains(t, stdout.String(), "Page A  [api] 120 chars, indexed 2026-01-02 03:04")
}

func TestShowCmd_Run(t *testing.T) {
	t.Parallel()

	svc := &mock.KnowledgeBaseService{
		GetDocumentFn: func(_ context.Context, name, url string) (*dockb.Document, error) {
			return &dockb.Document{ID: url, Title: "Page A", Markdown: "# Page A\n\nBody.\n\n## Usage\n"}, nil
		},
	}

	t.Run("prints document", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(svc)

		require.NoError(t, (&main.ShowCmd{Name: "docs", URL: "https://example.com/a"}).Run(deps))

		assert.Contains(t, stdout.String(), "## Document: Page A")
		assert.Contains(t, stdout.String(), "Body.")
	})

	t.Run("prints outline", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(svc)

		require.NoError(t, (&main.ShowCmd{Name: "docs", URL: "https://example.com/a", Outline: true}).Run(deps))

		assert.Equal(t, "Page A  #page-a\n  Usage  #usage\n", stdout.String())
	})
}

func TestRemoveCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("removes all with flag", func(t *testing.T) {
		t.Parallel()

		var gotURLs []string
		svc := &mock.KnowledgeBaseService{
			RemoveDocumentsFn: func(_ context.Context, name string, urls []string) (int, error) {
				gotURLs = urls
				return 4, nil
			},
		}
		deps, stdout, _ := newDeps(svc)

		require.NoError(t, (&main.RemoveCmd{Name: "docs", All: true}).Run(deps))

		assert.Equal(t, []string{dockb.RemoveAllDocuments}, gotURLs)
		assert.Contains(t, stdout.String(), "Removed 4 documents")
	})

	t.Run("requires urls or all", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(&mock.KnowledgeBaseService{})

		err := (&main.RemoveCmd{Name: "docs"}).Run(deps)

		assert.Equal(t, dockb.EINVALID, dockb.ErrorCode(err))
		assert.Contains(t, stderr.String(), "--all")
	})
}

func TestRefreshCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("dry run lists documents", func(t *testing.T) {
		t.Parallel()

		svc := &mock.KnowledgeBaseService{
			RefreshFn: func(_ context.Context, name string, dryRun bool) (*dockb.RefreshResult, error) {
				assert.True(t, dryRun)
				return &dockb.RefreshResult{URLs: []string{"https://example.com/a", "https://example.com/b"}}, nil
			},
		}
		deps, stdout, _ := newDeps(svc)

		require.NoError(t, (&main.RefreshCmd{Name: "docs", DryRun: true}).Run(deps))

		assert.Contains(t, stdout.String(), "https://example.com/b")
		assert.Contains(t, stdout.String(), "2 documents would be refreshed")
	})

	t.Run("prints report", func(t *testing.T) {
		t.Parallel()

		svc := &mock.KnowledgeBaseService{
			RefreshFn: func(context.Context, string, bool) (*dockb.RefreshResult, error) {
				return &dockb.RefreshResult{
					URLs:   []string{"https://example.com/a"},
					Report: &dockb.IndexReport{PagesIndexed: 1},
				}, nil
			},
		}
		deps, stdout, _ := newDeps(svc)

		require.NoError(t, (&main.RefreshCmd{Name: "docs"}).Run(deps))

		assert.Contains(t, stdout.String(), "Indexed 1 pages")
	})
}

func TestBackfillCmd_Run(t *testing.T) {
	t.Parallel()

	svc := &mock.KnowledgeBaseService{
		BackfillVectorsFn: func(context.Context, string) (int, error) {
			return 0, dockb.Errorf(dockb.EINVALID, "embeddings are disabled for %q", "docs")
		},
	}
	deps, _, stderr := newDeps(svc)

	err := (&main.BackfillCmd{Name: "docs"}).Run(deps)

	assert.Equal(t, dockb.EINVALID, dockb.ErrorCode(err))
	assert.Contains(t, stderr.String(), "embeddings are disabled")
}

func TestListCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists knowledge bases", func(t *testing.T) {
		t.Parallel()

		svc := &mock.KnowledgeBaseService{
			ListKnowledgeBasesFn: func(context.Context) ([]*dockb.KnowledgeBaseSummary, error) {
				return []*dockb.KnowledgeBaseSummary{
					{Name: "go", DocumentCount: 10, VectorCount: 9, SourceURL: "https://go.dev/doc/"},
					{Name: "react", Description: "React docs", DocumentCount: 3},
				}, nil
			},
		}
		deps, stdout, _ := newDeps(svc)

		require.NoError(t, (&main.ListCmd{}).Run(deps))

		assert.Contains(t, stdout.String(), "go  10 docs  9 vectors  https://go.dev/doc/")
		assert.Contains(t, stdout.String(), "React docs")
	})

	t.Run("hints when empty", func(t *testing.T) {
		t.Parallel()

		svc := &mock.KnowledgeBaseService{
			ListKnowledgeBasesFn: func(context.Context) ([]*dockb.KnowledgeBaseSummary, error) {
				return nil, nil
			},
		}
		deps, stdout, _ := newDeps(svc)

		require.NoError(t, (&main.ListCmd{}).Run(deps))

		assert.Contains(t, stdout.String(), "No knowledge bases found")
	})
}

func TestDeleteCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("deletes knowledge base when --force is set", func(t *testing.T) {
		t.Parallel()

		var deleted string
		svc := &mock.KnowledgeBaseService{
			DeleteKnowledgeBaseFn: func(_ context.Context, name string) error {
				deleted = name
				return nil
			},
		}
		deps, stdout, _ := newDeps(svc)

		require.NoError(t, (&main.DeleteCmd{Name: "react", Force: true}).Run(deps))

		assert.Equal(t, "react", deleted)
		assert.Contains(t, stdout.String(), "Deleted")
	})

	t.Run("requires --force flag", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(&mock.KnowledgeBaseService{})

		err := (&main.DeleteCmd{Name: "react"}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "--force")
	})

	t.Run("hints at list when not found", func(t *testing.T) {
		t.Parallel()

		svc := &mock.KnowledgeBaseService{
			DeleteKnowledgeBaseFn: func(_ context.Context, name string) error {
				return dockb.Errorf(dockb.ENOTFOUND, "knowledge base %q not found", name)
			},
		}
		deps, _, stderr := newDeps(svc)

		err := (&main.DeleteCmd{Name: "react", Force: true}).Run(deps)

		assert.Equal(t, dockb.ENOTFOUND, dockb.ErrorCode(err))
		assert.Contains(t, stderr.String(), "dockb list")
	})
}

func TestAskCmd_Run(t *testing.T) {
	t.Parallel()

	asker := &mock.Asker{
		AskFn: func(_ context.Context, kbName, question string) (string, error) {
			assert.Equal(t, "react", kbName)
			return "Use the useState hook.", nil
		},
	}
	deps, stdout, _ := newDeps(&mock.KnowledgeBaseService{})
	deps.Asker = asker

	require.NoError(t, (&main.AskCmd{Name: "react", Question: "How do I keep state?"}).Run(deps))

	assert.Equal(t, "Use the useState hook.\n", stdout.String())
}
