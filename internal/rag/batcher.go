package rag

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// BatchOptions controls how chunks are embedded.
type BatchOptions struct {
	BatchSize   int           // chunks per embedding request
	MaxAttempts int           // attempts per batch before giving up
	RetryDelay  time.Duration // wait between attempts of one batch
	BatchDelay  time.Duration // wait between consecutive batches
}

// DefaultBatchOptions returns the rate-limit friendly defaults.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		BatchSize:   256,
		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,
		BatchDelay:  600 * time.Millisecond,
	}
}

// BatchReport summarizes one EmbedChunks run.
type BatchReport struct {
	Embedded int
	Failed   int
	Batches  int
}

// Batcher embeds chunks in sequential batches with retry and pacing.
type Batcher struct {
	embedder Embedder
	opts     BatchOptions
	logger   *zap.Logger

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBatcher creates a Batcher. Zero option fields take their defaults.
func NewBatcher(embedder Embedder, opts BatchOptions, logger *zap.Logger) (*Batcher, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	def := DefaultBatchOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batcher{embedder: embedder, opts: opts, logger: logger, sleep: sleepContext}, nil
}

// EmbedChunks returns one EmbeddedChunk per input chunk, in input order.
// Chunks in a batch that failed every attempt get a nil embedding. The only
// error returned is context cancellation.
func (b *Batcher) EmbedChunks(ctx context.Context, chunks []Chunk) ([]EmbeddedChunk, BatchReport, error) {
	out := make([]EmbeddedChunk, 0, len(chunks))
	var report BatchReport

	for start := 0; start < len(chunks); start += b.opts.BatchSize {
		if start > 0 {
			if err := b.sleep(ctx, b.opts.BatchDelay); err != nil {
				return out, report, err
			}
		}

		end := start + b.opts.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		report.Batches++

		vectors, err := b.embedBatch(ctx, batch)
		if ctx.Err() != nil {
			return out, report, ctx.Err()
		}
		if err != nil {
			b.logger.Error("embedding batch failed, marking chunks unembedded",
				zap.Int("start", start), zap.Int("size", len(batch)), zap.Error(err))
			report.Failed += len(batch)
		} else {
			report.Embedded += len(batch)
		}

		for i, c := range batch {
			ec := EmbeddedChunk{Chunk: c}
			if err == nil {
				ec.Embedding = vectors[i]
			}
			out = append(out, ec)
		}

		b.logger.Info("embedded chunks", zap.Int("done", end), zap.Int("total", len(chunks)))
	}

	return out, report, nil
}

// embedBatch requests vectors for batch, retrying the whole batch.
func (b *Batcher) embedBatch(ctx context.Context, batch []Chunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	var lastErr error
	for attempt := 1; attempt <= b.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := b.sleep(ctx, b.opts.RetryDelay); err != nil {
				return nil, err
			}
		}

		records, err := b.embedder.Embed(ctx, texts)
		if err == nil && len(records) != len(texts) {
			err = fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingFailed, len(records), len(texts))
		}
		if err == nil {
			vectors := make([][]float32, len(records))
			for i, r := range records {
				vectors[i] = r.Embedding
			}
			return vectors, nil
		}

		lastErr = err
		b.logger.Warn("embedding attempt failed",
			zap.Int("attempt", attempt), zap.Int("max_attempts", b.opts.MaxAttempts), zap.Error(err))
	}

	return nil, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
