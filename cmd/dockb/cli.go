package main

import (
	"context"
	"io"

	"github.com/fwojciec/dockb"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Config   *Config
	Service  dockb.KnowledgeBaseService
	Registry dockb.KnowledgeBaseRegistry
	Asker    dockb.Asker
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config      string `help:"Configuration file" env:"DOCKB_CONFIG"`
	Root        string `help:"Directory holding the knowledge bases" env:"DOCKB_ROOT"`
	Embedder    string `help:"Embedding provider (none, static, gemini, openai)" env:"DOCKB_EMBEDDER"`
	Verbose     bool   `short:"v" help:"Log debug output to stderr"`
	MetricsFile string `help:"Write Prometheus metrics to this file on exit"`

	Create   CreateCmd   `cmd:"" help:"Create an empty knowledge base"`
	Index    IndexCmd    `cmd:"" help:"Index individual pages"`
	Crawl    CrawlCmd    `cmd:"" help:"Crawl a documentation site or sitemap"`
	Search   SearchCmd   `cmd:"" help:"Search a knowledge base"`
	Docs     DocsCmd     `cmd:"" help:"List documents of a knowledge base"`
	Show     ShowCmd     `cmd:"" help:"Print a stored document"`
	Remove   RemoveCmd   `cmd:"" help:"Remove documents from a knowledge base"`
	Refresh  RefreshCmd  `cmd:"" help:"Re-fetch stored documents and update changed ones"`
	Backfill BackfillCmd `cmd:"" help:"Embed documents that lack a vector"`
	Export   ExportCmd   `cmd:"" help:"Write documents as Markdown files"`
	List     ListCmd     `cmd:"" help:"List knowledge bases"`
	Delete   DeleteCmd   `cmd:"" help:"Delete a knowledge base and its documents"`
	Ask      AskCmd      `cmd:"" help:"Ask a question about a knowledge base"`
}

// MetadataFlags are the user metadata attached to indexed documents.
type MetadataFlags struct {
	Title       string   `help:"Override the extracted title"`
	Description string   `help:"Override the extracted description"`
	Category    string   `help:"Document category (default external)"`
	Tags        []string `help:"Document tags (repeatable)"`
	Priority    int      `help:"Document priority from 1 to 10 (default 5)"`
}

// Metadata returns the flags as document metadata. With no flags set it is
// zero, and re-indexed documents keep the metadata they already have.
func (f MetadataFlags) Metadata() dockb.DocumentMetadata {
	return dockb.DocumentMetadata{
		Title:       f.Title,
		Description: f.Description,
		Category:    f.Category,
		Tags:        f.Tags,
		Priority:    f.Priority,
	}
}

// CreateCmd is the "create" subcommand.
type CreateCmd struct {
	Name         string  `arg:"" help:"Knowledge base name"`
	Description  string  `help:"Description of the knowledge base"`
	SourceURL    string  `name:"source-url" help:"Documentation URL the knowledge base is built from"`
	Scope        string  `help:"Path prefix crawls stay under"`
	NoEmbeddings bool    `help:"Index and search lexically only"`
	Threshold    float64 `help:"Minimum cosine similarity of semantic hits" default:"0.5"`
}

// IndexCmd is the "index" subcommand.
type IndexCmd struct {
	Name  string   `arg:"" help:"Knowledge base name"`
	URLs  []string `arg:"" name:"url" help:"Page URLs"`
	Force bool     `short:"f" help:"Rewrite pages even when unchanged"`

	MetadataFlags `embed:""`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Name     string `arg:"" help:"Knowledge base name"`
	URL      string `arg:"" help:"Site, documentation root or sitemap URL"`
	MaxPages int    `help:"Maximum pages to fetch" default:"100"`
	MaxDepth int    `help:"Link hops followed from the discovered pages" default:"2"`
	Scope    string `help:"Path prefix the crawl stays under"`
	Force    bool   `short:"f" help:"Re-fetch and rewrite pages already indexed"`

	MetadataFlags `embed:""`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Name  string `arg:"" help:"Knowledge base name"`
	Query string `arg:"" help:"Search query"`
	TopK  int    `short:"k" help:"Number of results (default from config)"`
}

// DocsCmd is the "docs" subcommand.
type DocsCmd struct {
	Name     string `arg:"" help:"Knowledge base name"`
	Category string `help:"Only documents of this category"`
	Query    string `short:"q" help:"Only documents whose URL or title contains this text"`
	Limit    int    `help:"Maximum documents listed"`
	Offset   int    `help:"Documents skipped"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	Name    string `arg:"" help:"Knowledge base name"`
	URL     string `arg:"" help:"Document URL"`
	Outline bool   `help:"Print only the headings"`
}

// RemoveCmd is the "remove" subcommand.
type RemoveCmd struct {
	Name string   `arg:"" help:"Knowledge base name"`
	URLs []string `arg:"" optional:"" name:"url" help:"Document URLs"`
	All  bool     `help:"Remove every document"`
}

// RefreshCmd is the "refresh" subcommand.
type RefreshCmd struct {
	Name   string `arg:"" help:"Knowledge base name"`
	DryRun bool   `help:"List the documents without fetching"`
}

// BackfillCmd is the "backfill" subcommand.
type BackfillCmd struct {
	Name string `arg:"" help:"Knowledge base name"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Name string `arg:"" help:"Knowledge base name"`
	Dir  string `arg:"" help:"Output directory, replaced on success"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct{}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	Name  string `arg:"" help:"Knowledge base name"`
	Force bool   `help:"Confirm deletion"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Name     string `arg:"" help:"Knowledge base name"`
	Question string `arg:"" help:"Question to ask about the documentation"`
}
