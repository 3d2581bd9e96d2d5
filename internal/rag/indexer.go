package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// IndexOptions provides configuration for chunk indexing
type IndexOptions struct {
	// BatchSize is the number of chunks sent per Insert call
	BatchSize int

	// Recreate drops the collection before creating it again
	Recreate bool
}

// DefaultIndexOptions returns sensible defaults for indexing
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize: 200,
		Recreate:  true,
	}
}

// IndexReport counts what an IndexChunks call did.
type IndexReport struct {
	Uploaded int
	Skipped  int // chunks dropped for having no embedding
}

// PrepareStore makes sure the collection exists, dropping it first when
// recreate is set so the following upload fully replaces its contents.
func PrepareStore(ctx context.Context, store VectorStore, recreate bool) error {
	if store == nil {
		return fmt.Errorf("vector store cannot be nil")
	}
	if recreate {
		if err := store.Drop(ctx); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// IndexChunks bulk-loads embedded chunks into the vector store. Chunks with
// no embedding are never uploaded.
func IndexChunks(
	ctx context.Context,
	store VectorStore,
	chunks []EmbeddedChunk,
	opts IndexOptions,
	logger *zap.Logger,
) (IndexReport, error) {
	var report IndexReport
	if store == nil {
		return report, fmt.Errorf("vector store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultIndexOptions().BatchSize
	}

	valid := make([]EmbeddedChunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			report.Skipped++
			continue
		}
		valid = append(valid, c)
	}
	if report.Skipped > 0 {
		logger.Warn("skipping chunks without embeddings", zap.Int("count", report.Skipped))
	}

	for start := 0; start < len(valid); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(valid) {
			end = len(valid)
		}

		if err := store.Insert(ctx, valid[start:end]); err != nil {
			return report, fmt.Errorf("failed to insert batch starting at %d: %w", start, err)
		}
		report.Uploaded += end - start
	}

	logger.Info("uploaded chunks", zap.Int("uploaded", report.Uploaded), zap.Int("skipped", report.Skipped))
	return report, nil
}
