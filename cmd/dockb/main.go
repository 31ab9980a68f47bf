package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/bleve"
	"github.com/fwojciec/dockb/crawl"
	"github.com/fwojciec/dockb/fs"
	"github.com/fwojciec/dockb/gemini"
	"github.com/fwojciec/dockb/goquery"
	"github.com/fwojciec/dockb/htmltomarkdown"
	dockbhttp "github.com/fwojciec/dockb/http"
	"github.com/fwojciec/dockb/kb"
	"github.com/fwojciec/dockb/lru"
	"github.com/fwojciec/dockb/metrics"
	"github.com/fwojciec/dockb/openai"
	"github.com/fwojciec/dockb/readability"
	"github.com/fwojciec/dockb/search"
	dockbslog "github.com/fwojciec/dockb/slog"
	"github.com/fwojciec/dockb/static"
	"github.com/fwojciec/dockb/trafilatura"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Registry of knowledge bases, opened by Run.
	Registry *fs.Registry

	// Metrics collected while running a command.
	Metrics *metrics.Metrics

	gemini *genai.Client
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{Metrics: metrics.New()}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.Registry != nil {
		return m.Registry.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("dockb"),
		kong.Description("Index documentation sites and search them."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'dockb --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	configPath := cli.Config
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cli.Root != "" {
		cfg.Root = cli.Root
	}
	if cli.Embedder != "" {
		cfg.Embedding.Provider = cli.Embedder
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}
	deps.Config = cfg

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	analyzer := bleve.NewAnalyzer()
	m.Registry = fs.NewRegistry(cfg.Root, analyzer)
	if err := m.Registry.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set DOCKB_ROOT to use a different directory\n")
		return fmt.Errorf("failed to open %q: %w", cfg.Root, err)
	}
	defer m.Close()

	if cli.MetricsFile != "" {
		defer func() {
			if werr := m.Metrics.WriteFile(cli.MetricsFile); werr != nil && err == nil {
				err = fmt.Errorf("write metrics: %w", werr)
			}
		}()
	}

	embedder, err := m.newEmbedder(ctx, cfg.Embedding, analyzer, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Hint: Use --embedder=static to index without an API key\n")
		return err
	}

	svc := &kb.Service{
		Registry:      m.Registry,
		Sitemaps:      dockbslog.NewLoggingSitemapService(dockbhttp.NewSitemapService(nil), logger),
		Fetcher:       m.newFetcher(cfg.Crawl, logger),
		Extractor:     newExtractor(cfg.Extractor),
		RateLimiter:   crawl.NewDomainLimiter(cfg.Crawl.RequestsPerSecond),
		Planner:       search.NewPlanner(analyzer),
		Embedder:      embedder,
		Concurrency:   cfg.Crawl.Concurrency,
		IndexTimeout:  cfg.Crawl.IndexTimeout,
		SearchTimeout: cfg.Search.Timeout,
		Logger:        logger,
		Progress:      progressPrinter(stderr),
		WrapSearcher: func(s dockb.Searcher) dockb.Searcher {
			return m.Metrics.NewSearcher(dockbslog.NewLoggingSearcher(s, logger))
		},
	}
	deps.Service = svc
	deps.Registry = m.Registry

	if strings.HasPrefix(kongCtx.Command(), "ask") {
		asker, err := m.newAsker(ctx, svc, logger)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Get an API key at https://aistudio.google.com/apikey")
			return err
		}
		deps.Asker = asker
	}

	return kongCtx.Run(deps)
}

// newEmbedder builds the configured embedding provider, instrumented and
// cached. It returns nil for the none provider.
func (m *Main) newEmbedder(ctx context.Context, cfg EmbeddingConfig, tokenizer dockb.Tokenizer, logger *slog.Logger) (dockb.Embedder, error) {
	var provider dockb.Embedder
	switch cfg.Provider {
	case ProviderNone:
		return nil, nil
	case ProviderStatic:
		provider = static.NewEmbedder(tokenizer, cfg.Dimensions)
	case ProviderGemini:
		client, err := m.geminiClient(ctx)
		if err != nil {
			return nil, err
		}
		provider = gemini.NewEmbedder(client, cfg.Model, cfg.Dimensions)
	case ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" && cfg.BaseURL == "" {
			return nil, dockb.Errorf(dockb.EINVALID, "OPENAI_API_KEY not set")
		}
		provider = openai.NewEmbedder(openai.Config{
			APIKey:     apiKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, dockb.Errorf(dockb.EINVALID, "unknown embedding provider %q", cfg.Provider)
	}

	instrumented := m.Metrics.NewEmbedder(dockbslog.NewLoggingEmbedder(provider, logger))
	return lru.NewEmbedder(instrumented, cfg.CacheSize), nil
}

func (m *Main) geminiClient(ctx context.Context) (*genai.Client, error) {
	if m.gemini != nil {
		return m.gemini, nil
	}
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, dockb.Errorf(dockb.EINVALID, "GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}
	m.gemini = client
	return client, nil
}

func (m *Main) newAsker(ctx context.Context, retriever dockb.Retriever, logger *slog.Logger) (*gemini.Asker, error) {
	client, err := m.geminiClient(ctx)
	if err != nil {
		return nil, err
	}
	asker := gemini.NewAsker(client, retriever)
	counter, err := gemini.NewTokenCounter(gemini.AskModel)
	if err != nil {
		logger.Warn("context not trimmed to the token limit", "error", err)
	} else {
		asker.Counter = counter
	}
	return asker, nil
}

func (m *Main) newFetcher(cfg CrawlConfig, logger *slog.Logger) dockb.Fetcher {
	opts := []dockbhttp.Option{
		dockbhttp.WithRetryHook(func(url string, attempt int, err error) {
			logger.Info("retrying fetch", "url", url, "attempt", attempt, "error", err)
		}),
	}
	if cfg.FetchTimeout > 0 {
		opts = append(opts, dockbhttp.WithTimeout(cfg.FetchTimeout))
	}
	if cfg.MaxBodyBytes > 0 {
		opts = append(opts, dockbhttp.WithMaxBodyBytes(cfg.MaxBodyBytes))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, dockbhttp.WithUserAgent(cfg.UserAgent))
	}
	fetcher := dockbslog.NewLoggingFetcher(dockbhttp.NewFetcher(opts...), logger)
	return m.Metrics.NewFetcher(fetcher)
}

// newExtractor returns the HTML extractor for the configured mode.
func newExtractor(cfg ExtractorConfig) dockb.Extractor {
	html := goquery.NewExtractor()
	switch cfg.Mode {
	case ModeTrafilatura:
		html.Isolator = trafilatura.NewIsolator()
	case ModeReadability:
		html.Isolator = readability.NewIsolator()
	}
	if cfg.Markdown {
		html.Converter = htmltomarkdown.NewConverter()
	}

	mux := dockb.NewExtractorMux()
	mux.Handle(html, "text/html", "application/xhtml+xml")
	return mux
}

// progressPrinter reports indexed and failed pages while crawling.
// progressURLWidth is the widest URL shown in crawl progress lines.
const progressURLWidth = 72

func progressPrinter(w io.Writer) crawl.ProgressFunc {
	return func(event crawl.ProgressEvent) {
		u := crawl.TruncateURL(event.URL, progressURLWidth)
		switch event.Type {
		case crawl.ProgressIndexed:
			fmt.Fprintf(w, "  [%d] %s (%s)\n", event.Completed, u, event.Outcome)
		case crawl.ProgressFailed:
			fmt.Fprintf(w, "  skip %s: %v\n", u, event.Error)
		}
	}
}
