package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/dockb"
)

var _ dockb.Embedder = (*LoggingEmbedder)(nil)

// LoggingEmbedder wraps an Embedder with logging. Successful calls are
// logged at debug level, failures as warnings.
type LoggingEmbedder struct {
	next   dockb.Embedder
	logger *slog.Logger
}

// NewLoggingEmbedder creates a new LoggingEmbedder.
func NewLoggingEmbedder(next dockb.Embedder, logger *slog.Logger) *LoggingEmbedder {
	return &LoggingEmbedder{next: next, logger: logger}
}

// Embed delegates to the wrapped embedder and logs the operation.
func (e *LoggingEmbedder) Embed(ctx context.Context, text string) (vec []float32, err error) {
	defer func(begin time.Time) {
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		e.logger.Log(ctx, level, "embed",
			"provider", e.next.Name(),
			"chars", len(text),
			"dimensions", len(vec),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Embed(ctx, text)
}

// Name returns the name of the wrapped embedder.
func (e *LoggingEmbedder) Name() string {
	return e.next.Name()
}
