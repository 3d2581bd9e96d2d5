package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func hit(text, source string, distance float32) SearchResult {
	return SearchResult{Chunk: Chunk{Text: text, Source: source}, Distance: distance}
}

// queryEmbedder tags each query with its own vector so the mock store can tell
// the two searches apart.
func queryEmbedder(vectors map[string][]float32, fail map[string]bool) *mockEmbedder {
	return &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
			if fail[texts[0]] {
				return nil, ErrEmbeddingFailed
			}
			return []EmbeddingRecord{{Text: texts[0], Embedding: vectors[texts[0]]}}, nil
		},
	}
}

func TestNewRetriever_Validation(t *testing.T) {
	if _, err := NewRetriever(nil, &mockVectorStore{}, DefaultRetrieverOptions(), nil); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := NewRetriever(&mockEmbedder{}, nil, DefaultRetrieverOptions(), nil); err == nil {
		t.Error("expected error for nil store")
	}
}

func TestRetrieveDual_MergesBothSides(t *testing.T) {
	embedder := queryEmbedder(map[string][]float32{
		"What is Saudi Arabia's GDP growth?": {1, 0, 0},
		"ما هو نمو الناتج المحلي؟":            {0, 1, 0},
	}, nil)

	var mu sync.Mutex
	var topKs []int
	store := &mockVectorStore{
		searchFunc: func(ctx context.Context, vector []float32, topK int, filter *Filter) ([]SearchResult, error) {
			mu.Lock()
			topKs = append(topKs, topK)
			mu.Unlock()
			if vector[0] == 1 {
				return []SearchResult{hit("gdp en", "gastat_gdp_year.en.json", 0.2), hit("shared", "en-side", 0.3)}, nil
			}
			return []SearchResult{hit("gdp ar", "gastat_gdp_year.ar.json", 0.1), hit("shared", "ar-side", 0.4)}, nil
		},
	}

	r, err := NewRetriever(embedder, store, DefaultRetrieverOptions(), nil)
	if err != nil {
		t.Fatalf("NewRetriever failed: %v", err)
	}

	got := r.RetrieveDual(context.Background(), "What is Saudi Arabia's GDP growth?", "ما هو نمو الناتج المحلي؟")

	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %+v", len(got), got)
	}
	wantOrder := []string{"gdp en", "shared", "gdp ar"}
	for i, w := range wantOrder {
		if got[i].Text != w {
			t.Errorf("candidate[%d] = %q, want %q", i, got[i].Text, w)
		}
	}
	if got[1].Source != "ar-side" {
		t.Errorf("translated side should win for shared text, got %q", got[1].Source)
	}
	if len(topKs) != 2 || topKs[0] != 7 || topKs[1] != 7 {
		t.Errorf("expected two searches with topK 7, got %v", topKs)
	}
}

func TestRetrieveDual_OneSideEmbeddingFails(t *testing.T) {
	embedder := queryEmbedder(map[string][]float32{"q-en": {1, 0, 0}}, map[string]bool{"q-ar": true})

	searches := 0
	var mu sync.Mutex
	store := &mockVectorStore{
		searchFunc: func(ctx context.Context, vector []float32, topK int, filter *Filter) ([]SearchResult, error) {
			mu.Lock()
			searches++
			mu.Unlock()
			return []SearchResult{hit("only", "s", 0.1)}, nil
		},
	}

	r, _ := NewRetriever(embedder, store, DefaultRetrieverOptions(), nil)
	got := r.RetrieveDual(context.Background(), "q-en", "q-ar")

	if searches != 1 {
		t.Errorf("expected 1 search, got %d", searches)
	}
	if len(got) != 1 || got[0].Text != "only" {
		t.Errorf("unexpected candidates %+v", got)
	}
}

func TestRetrieveDual_BothFail(t *testing.T) {
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
			return nil, errors.New("service down")
		},
	}
	store := &mockVectorStore{
		searchFunc: func(ctx context.Context, vector []float32, topK int, filter *Filter) ([]SearchResult, error) {
			t.Error("search should not be called")
			return nil, nil
		},
	}

	r, _ := NewRetriever(embedder, store, DefaultRetrieverOptions(), nil)
	if got := r.RetrieveDual(context.Background(), "a", "b"); len(got) != 0 {
		t.Errorf("expected empty candidates, got %+v", got)
	}
}

func TestRetrieveDual_SearchFailureSkipsSide(t *testing.T) {
	store := &mockVectorStore{
		searchFunc: func(ctx context.Context, vector []float32, topK int, filter *Filter) ([]SearchResult, error) {
			if vector[0] == 1 {
				return nil, ErrSearchFailed
			}
			return []SearchResult{hit("ar", "s", 0.1)}, nil
		},
	}
	embedder := queryEmbedder(map[string][]float32{"en": {1}, "ar": {2}}, nil)

	r, _ := NewRetriever(embedder, store, DefaultRetrieverOptions(), nil)
	got := r.RetrieveDual(context.Background(), "en", "ar")
	if len(got) != 1 || got[0].Text != "ar" {
		t.Errorf("unexpected candidates %+v", got)
	}
}

func TestRetrieveDual_SortByDistance(t *testing.T) {
	store := &mockVectorStore{
		searchFunc: func(ctx context.Context, vector []float32, topK int, filter *Filter) ([]SearchResult, error) {
			if vector[0] == 1 {
				return []SearchResult{hit("far", "s", 0.9)}, nil
			}
			return []SearchResult{hit("near", "s", 0.1)}, nil
		},
	}
	embedder := queryEmbedder(map[string][]float32{"en": {1}, "ar": {2}}, nil)

	r, _ := NewRetriever(embedder, store, RetrieverOptions{TopK: 3, SortByDistance: true}, nil)
	got := r.RetrieveDual(context.Background(), "en", "ar")
	if len(got) != 2 || got[0].Text != "near" {
		t.Errorf("expected nearest first, got %+v", got)
	}
}

func TestRetrieveDual_EmbedsConcurrently(t *testing.T) {
	var mu sync.Mutex
	entered := 0
	both := make(chan struct{})

	// Each call blocks until the other one has started. A sequential
	// implementation times out and loses a side.
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
			mu.Lock()
			entered++
			if entered == 2 {
				close(both)
			}
			mu.Unlock()

			select {
			case <-both:
			case <-time.After(2 * time.Second):
				return nil, ErrEmbeddingFailed
			}
			return fakeVectors(texts), nil
		},
	}
	store := &mockVectorStore{
		searchFunc: func(ctx context.Context, vector []float32, topK int, filter *Filter) ([]SearchResult, error) {
			return []SearchResult{hit(fmt.Sprintf("hit %v", vector), "", 0)}, nil
		},
	}

	r, err := NewRetriever(embedder, store, DefaultRetrieverOptions(), nil)
	if err != nil {
		t.Fatalf("NewRetriever failed: %v", err)
	}

	got := r.RetrieveDual(context.Background(), "inflation in Riyadh", "التضخم في الرياض")
	if len(got) != 2 {
		t.Fatalf("expected both sides to be searched, got %d candidates", len(got))
	}
}

func TestMergeCandidates(t *testing.T) {
	tests := []struct {
		name       string
		original   []SearchResult
		translated []SearchResult
		want       []string
	}{
		{name: "both empty", want: []string{}},
		{name: "original only", original: []SearchResult{hit("a", "", 0), hit("b", "", 0)}, want: []string{"a", "b"}},
		{name: "disjoint", original: []SearchResult{hit("a", "", 0)}, translated: []SearchResult{hit("b", "", 0)}, want: []string{"a", "b"}},
		{name: "overlap", original: []SearchResult{hit("a", "", 0), hit("b", "", 0)}, translated: []SearchResult{hit("b", "", 0), hit("c", "", 0)}, want: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeCandidates(tt.original, tt.translated)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d candidates, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].Text != tt.want[i] {
					t.Errorf("candidate[%d] = %q, want %q", i, got[i].Text, tt.want[i])
				}
			}
		})
	}
}
