package rag

import (
	"context"
	"sync"
)

// mockEmbedder implements Embedder interface for testing
type mockEmbedder struct {
	mu        sync.Mutex
	calls     int
	embedFunc func(ctx context.Context, texts []string) ([]EmbeddingRecord, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.embedFunc != nil {
		return m.embedFunc(ctx, texts)
	}
	return fakeVectors(texts), nil
}

func (m *mockEmbedder) GetModel() string  { return "mock" }
func (m *mockEmbedder) GetDimension() int { return 3 }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeVectors returns a simple deterministic vector per text.
func fakeVectors(texts []string) []EmbeddingRecord {
	records := make([]EmbeddingRecord, len(texts))
	for i, text := range texts {
		records[i] = EmbeddingRecord{
			Text:      text,
			Embedding: []float32{float32(len(text)), float32(i), 1.0},
			Index:     i,
			Model:     "mock",
		}
	}
	return records
}

// mockVectorStore implements VectorStore interface for testing
type mockVectorStore struct {
	mu          sync.Mutex
	inserted    []EmbeddedChunk
	insertCalls int
	ensureCalls int
	dropCalls   int
	ensureFunc  func(ctx context.Context) error
	dropFunc    func(ctx context.Context) error
	insertFunc  func(ctx context.Context, chunks []EmbeddedChunk) error
	searchFunc  func(ctx context.Context, vector []float32, topK int, filter *Filter) ([]SearchResult, error)
}

func (m *mockVectorStore) EnsureSchema(ctx context.Context) error {
	m.mu.Lock()
	m.ensureCalls++
	m.mu.Unlock()
	if m.ensureFunc != nil {
		return m.ensureFunc(ctx)
	}
	return nil
}

func (m *mockVectorStore) Drop(ctx context.Context) error {
	m.mu.Lock()
	m.dropCalls++
	m.mu.Unlock()
	if m.dropFunc != nil {
		return m.dropFunc(ctx)
	}
	return nil
}

func (m *mockVectorStore) Insert(ctx context.Context, chunks []EmbeddedChunk) error {
	m.mu.Lock()
	m.insertCalls++
	m.mu.Unlock()
	if m.insertFunc != nil {
		return m.insertFunc(ctx, chunks)
	}
	m.mu.Lock()
	m.inserted = append(m.inserted, chunks...)
	m.mu.Unlock()
	return nil
}

func (m *mockVectorStore) Search(ctx context.Context, vector []float32, topK int, filter *Filter) ([]SearchResult, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, vector, topK, filter)
	}
	return nil, nil
}
