package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yates-Labs/bayan/internal/rag"
)

func TestNewPgVectorStore_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config PgVectorConfig
	}{
		{name: "missing url", config: PgVectorConfig{Table: "chunks", Dimension: 3}},
		{name: "bad table", config: PgVectorConfig{DatabaseURL: "postgres://x", Table: "chunks; drop", Dimension: 3}},
		{name: "upper table", config: PgVectorConfig{DatabaseURL: "postgres://x", Table: "Chunks", Dimension: 3}},
		{name: "bad dimension", config: PgVectorConfig{DatabaseURL: "postgres://x", Table: "chunks"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPgVectorStore(tt.config)
			assert.Error(t, err)
		})
	}
}

func newTestStore(t *testing.T) *PgVectorStore {
	t.Helper()
	s, err := NewPgVectorStore(PgVectorConfig{DatabaseURL: "postgres://localhost/bayan", Table: "chunks", Dimension: 2})
	require.NoError(t, err)
	return s
}

func TestSearchQuery_NoFilter(t *testing.T) {
	s := newTestStore(t)

	q, args, err := s.searchQuery([]float32{1, 0}, 7, nil)
	require.NoError(t, err)

	assert.Contains(t, q, "FROM chunks")
	assert.Contains(t, q, "ORDER BY embedding <=> $1")
	assert.Contains(t, q, "LIMIT $2")
	assert.NotContains(t, q, "WHERE")
	assert.Len(t, args, 2)
	assert.Equal(t, 7, args[1])
}

func TestSearchQuery_Filters(t *testing.T) {
	s := newTestStore(t)

	q, args, err := s.searchQuery([]float32{1, 0}, 3, &rag.Filter{Property: rag.PropertyYear, Value: 2023})
	require.NoError(t, err)
	assert.Contains(t, q, "WHERE year = $2")
	assert.Contains(t, q, "LIMIT $3")
	assert.Equal(t, int64(2023), args[1])

	q, args, err = s.searchQuery([]float32{1, 0}, 3, &rag.Filter{Property: rag.PropertyLanguage, Value: "ar"})
	require.NoError(t, err)
	assert.Contains(t, q, "WHERE language = $2")
	assert.Equal(t, "ar", args[1])
}

func TestSearchQuery_UnsupportedFilter(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.searchQuery([]float32{1, 0}, 3, &rag.Filter{Property: "embedding", Value: "x"})
	assert.True(t, errors.Is(err, rag.ErrUnsupportedFilter))

	_, _, err = s.searchQuery([]float32{1, 0}, 3, &rag.Filter{Property: rag.PropertyYear, Value: "2023"})
	assert.True(t, errors.Is(err, rag.ErrUnsupportedFilter))
}

func TestSchemaStatements(t *testing.T) {
	s := newTestStore(t)
	stmts := s.schemaStatements()

	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[1], "embedding vector(2)")
	assert.True(t, strings.Contains(stmts[2], "vector_cosine_ops"))
}

func TestInsert_WrongDimension(t *testing.T) {
	s := newTestStore(t)
	err := s.Insert(context.Background(), []rag.EmbeddedChunk{{Chunk: rag.Chunk{Text: "a"}, Embedding: []float32{1}}})
	assert.ErrorIs(t, err, rag.ErrInvalidDimension)
}

func TestPgVectorStore_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if testing.Short() || dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := NewPgVectorStore(PgVectorConfig{DatabaseURL: dsn, Table: "bayan_test_chunks", Dimension: 3})
	require.NoError(t, err)
	require.NoError(t, rag.PrepareStore(ctx, s, true))
	defer s.Drop(ctx)

	year := 2023
	chunks := []rag.EmbeddedChunk{
		{Chunk: rag.Chunk{Text: "GDP rose", Source: "gdp.en.json", Language: "en", Year: &year, Type: "gastat_gdp", Score: 1}, Embedding: []float32{1, 0, 0}},
		{Chunk: rag.Chunk{Text: "التضخم", Source: "inf.ar.json", Language: "ar", Score: 1}, Embedding: []float32{0, 1, 0}},
	}
	require.NoError(t, s.Insert(ctx, chunks))

	hits, err := s.Search(ctx, []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "GDP rose", hits[0].Text)
	assert.InDelta(t, 0, hits[0].Distance, 1e-5)
	require.NotNil(t, hits[0].Year)
	assert.Equal(t, 2023, *hits[0].Year)

	hits, err = s.Search(ctx, []float32{1, 0, 0}, 2, &rag.Filter{Property: rag.PropertyLanguage, Value: "ar"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Nil(t, hits[0].Year)
}
