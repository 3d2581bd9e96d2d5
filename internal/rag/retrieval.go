package rag

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RetrieverOptions tunes dual-language retrieval.
type RetrieverOptions struct {
	TopK int

	// SortByDistance orders merged candidates by ascending distance. When
	// false, candidates keep the order in which the merge first saw them.
	SortByDistance bool
}

// DefaultRetrieverOptions returns the production retrieval settings.
func DefaultRetrieverOptions() RetrieverOptions {
	return RetrieverOptions{TopK: 7}
}

// Retriever finds candidate chunks for a question asked in two languages.
type Retriever struct {
	embedder    Embedder
	vectorStore VectorStore
	opts        RetrieverOptions
	logger      *zap.Logger
}

// NewRetriever creates a new Retriever instance.
func NewRetriever(embedder Embedder, vectorStore VectorStore, opts RetrieverOptions, logger *zap.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if vectorStore == nil {
		return nil, fmt.Errorf("vector store cannot be nil")
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultRetrieverOptions().TopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Retriever{
		embedder:    embedder,
		vectorStore: vectorStore,
		opts:        opts,
		logger:      logger,
	}, nil
}

// RetrieveDual embeds both question variants concurrently, then searches
// with both vectors concurrently, and merges the hits by chunk text.
//
// A failed embedding or search only drops that side. When both sides fail
// the result is empty. No error is returned for upstream failures.
func (r *Retriever) RetrieveDual(ctx context.Context, original, translated string) []SearchResult {
	queries := [2]string{original, translated}
	var vectors [2][]float32

	// errgroup is used for the join only; each task swallows its own error
	// so one side failing never cancels the other.
	var embedGroup errgroup.Group
	for i, q := range queries {
		i, q := i, q
		embedGroup.Go(func() error {
			v, err := EmbedOne(ctx, r.embedder, q)
			if err != nil {
				r.logger.Warn("query embedding failed, skipping side", zap.Int("side", i), zap.Error(err))
				return nil
			}
			vectors[i] = v
			return nil
		})
	}
	_ = embedGroup.Wait()

	var results [2][]SearchResult
	var searchGroup errgroup.Group
	for i, v := range vectors {
		if v == nil {
			continue
		}
		i, v := i, v
		searchGroup.Go(func() error {
			hits, err := r.vectorStore.Search(ctx, v, r.opts.TopK, nil)
			if err != nil {
				r.logger.Warn("vector search failed, skipping side", zap.Int("side", i), zap.Error(err))
				return nil
			}
			results[i] = hits
			return nil
		})
	}
	_ = searchGroup.Wait()

	merged := MergeCandidates(results[0], results[1])
	if r.opts.SortByDistance {
		SortByDistance(merged)
	}

	r.logger.Info("retrieved candidates",
		zap.Int("original_hits", len(results[0])),
		zap.Int("translated_hits", len(results[1])),
		zap.Int("candidates", len(merged)))
	return merged
}

// MergeCandidates merges two hit lists keyed by chunk text. A key keeps the
// position of its first appearance; the translated side's record replaces
// the original side's for the same text.
func MergeCandidates(original, translated []SearchResult) []SearchResult {
	index := make(map[string]int, len(original)+len(translated))
	merged := make([]SearchResult, 0, len(original)+len(translated))

	for _, list := range [][]SearchResult{original, translated} {
		for _, hit := range list {
			if pos, ok := index[hit.Text]; ok {
				merged[pos] = hit
				continue
			}
			index[hit.Text] = len(merged)
			merged = append(merged, hit)
		}
	}
	return merged
}

// SortByDistance orders candidates nearest first, keeping merge order for ties.
func SortByDistance(candidates []SearchResult) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
}
