package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func testChunks(n int) []Chunk {
	chunks := make([]Chunk, n)
	for i := range chunks {
		chunks[i] = Chunk{Source: "s", Text: fmt.Sprintf("chunk %d", i), Language: "en", Score: DefaultScore}
	}
	return chunks
}

// newTestBatcher returns a batcher that records sleeps instead of waiting.
func newTestBatcher(t *testing.T, embedder Embedder, opts BatchOptions) (*Batcher, *[]time.Duration) {
	t.Helper()
	b, err := NewBatcher(embedder, opts, nil)
	if err != nil {
		t.Fatalf("NewBatcher failed: %v", err)
	}
	var sleeps []time.Duration
	b.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return b, &sleeps
}

func TestNewBatcher_NilEmbedder(t *testing.T) {
	if _, err := NewBatcher(nil, DefaultBatchOptions(), nil); err == nil {
		t.Error("expected error for nil embedder")
	}
}

func TestDefaultBatchOptions(t *testing.T) {
	opts := DefaultBatchOptions()
	if opts.BatchSize != 256 || opts.MaxAttempts != 3 {
		t.Errorf("unexpected defaults: %+v", opts)
	}
	if opts.RetryDelay != 2*time.Second || opts.BatchDelay != 600*time.Millisecond {
		t.Errorf("unexpected delays: %+v", opts)
	}
}

func TestEmbedChunks_OrderAndPacing(t *testing.T) {
	embedder := &mockEmbedder{}
	opts := BatchOptions{BatchSize: 2, MaxAttempts: 3, RetryDelay: time.Second, BatchDelay: 500 * time.Millisecond}
	b, sleeps := newTestBatcher(t, embedder, opts)

	chunks := testChunks(5)
	out, report, err := b.EmbedChunks(context.Background(), chunks)
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}

	if len(out) != len(chunks) {
		t.Fatalf("expected %d records, got %d", len(chunks), len(out))
	}
	for i := range out {
		if out[i].Text != chunks[i].Text {
			t.Errorf("out[%d].Text = %q, want %q", i, out[i].Text, chunks[i].Text)
		}
		if out[i].Embedding == nil {
			t.Errorf("out[%d] missing embedding", i)
		}
	}
	if report.Batches != 3 || report.Embedded != 5 || report.Failed != 0 {
		t.Errorf("unexpected report: %+v", report)
	}

	// Two gaps between three batches, none after the last.
	if len(*sleeps) != 2 {
		t.Fatalf("expected 2 sleeps, got %v", *sleeps)
	}
	for _, d := range *sleeps {
		if d != opts.BatchDelay {
			t.Errorf("sleep = %v, want %v", d, opts.BatchDelay)
		}
	}
}

func TestEmbedChunks_FailedBatchIsNull(t *testing.T) {
	// Every call containing "chunk 2" fails; that is the second batch of size 2.
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
			for _, text := range texts {
				if text == "chunk 2" {
					return nil, errors.New("rate limited")
				}
			}
			return fakeVectors(texts), nil
		},
	}
	opts := BatchOptions{BatchSize: 2, MaxAttempts: 3, RetryDelay: time.Second, BatchDelay: time.Millisecond}
	b, sleeps := newTestBatcher(t, embedder, opts)

	out, report, err := b.EmbedChunks(context.Background(), testChunks(6))
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}

	for i, ec := range out {
		failed := i == 2 || i == 3
		if failed && ec.Embedding != nil {
			t.Errorf("out[%d] should have nil embedding", i)
		}
		if !failed && ec.Embedding == nil {
			t.Errorf("out[%d] should be embedded", i)
		}
	}
	if report.Failed != 2 || report.Embedded != 4 {
		t.Errorf("unexpected report: %+v", report)
	}
	// One call for batch 1, three for batch 2, one for batch 3.
	if embedder.callCount() != 5 {
		t.Errorf("expected 5 embed calls, got %d", embedder.callCount())
	}

	retries := 0
	for _, d := range *sleeps {
		if d == opts.RetryDelay {
			retries++
		}
	}
	if retries != 2 {
		t.Errorf("expected 2 retry sleeps, got %d (%v)", retries, *sleeps)
	}
}

func TestEmbedChunks_RetrySucceeds(t *testing.T) {
	attempts := 0
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("transient")
			}
			return fakeVectors(texts), nil
		},
	}
	b, _ := newTestBatcher(t, embedder, BatchOptions{BatchSize: 10, MaxAttempts: 3})

	out, report, err := b.EmbedChunks(context.Background(), testChunks(3))
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}
	if report.Failed != 0 {
		t.Errorf("expected no failures after retry, got %+v", report)
	}
	for i, ec := range out {
		if ec.Embedding == nil {
			t.Errorf("out[%d] should be embedded", i)
		}
	}
}

func TestEmbedChunks_LengthMismatchCountsAsFailure(t *testing.T) {
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
			return fakeVectors(texts[:1]), nil
		},
	}
	b, _ := newTestBatcher(t, embedder, BatchOptions{BatchSize: 10, MaxAttempts: 2})

	out, report, err := b.EmbedChunks(context.Background(), testChunks(3))
	if err != nil {
		t.Fatalf("EmbedChunks failed: %v", err)
	}
	if report.Failed != 3 {
		t.Errorf("expected 3 failed, got %+v", report)
	}
	if embedder.callCount() != 2 {
		t.Errorf("expected 2 attempts, got %d", embedder.callCount())
	}
	if len(out) != 3 || out[0].Embedding != nil {
		t.Errorf("expected 3 unembedded records, got %+v", out)
	}
}

func TestEmbedChunks_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b, _ := newTestBatcher(t, &mockEmbedder{}, BatchOptions{BatchSize: 1})
	_, _, err := b.EmbedChunks(ctx, testChunks(3))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEmbedChunks_Empty(t *testing.T) {
	b, _ := newTestBatcher(t, &mockEmbedder{}, DefaultBatchOptions())
	out, report, err := b.EmbedChunks(context.Background(), nil)
	if err != nil || len(out) != 0 || report.Batches != 0 {
		t.Errorf("expected empty run, got %v %+v %v", out, report, err)
	}
}
