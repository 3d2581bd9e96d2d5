package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yates-Labs/bayan/internal/lang"
)

// ErrUnsupportedFilter is returned when a search filter names a property the
// store cannot match on.
var ErrUnsupportedFilter = errors.New("unsupported search filter")

// Record is raw ingested content before chunking. Year and Type are only set
// for statistical API rows.
type Record struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	Year   *int   `json:"year,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Chunk is a bounded piece of source text tagged with its language.
type Chunk struct {
	Source   string        `json:"source"`
	Text     string        `json:"text"`
	Language lang.Language `json:"language"`
	Year     *int          `json:"year,omitempty"`
	Type     string        `json:"type,omitempty"`
	Score    float64       `json:"score"`
}

// ChunkKey is the identity of a chunk. Two chunks with equal keys are the
// same chunk.
type ChunkKey struct {
	Text     string
	Source   string
	Year     int
	HasYear  bool
	Language lang.Language
	Type     string
}

// Key returns the dedup identity of c.
func (c Chunk) Key() ChunkKey {
	k := ChunkKey{Text: c.Text, Source: c.Source, Language: c.Language, Type: c.Type}
	if c.Year != nil {
		k.Year = *c.Year
		k.HasYear = true
	}
	return k
}

// EmbeddedChunk is a chunk plus its vector. A nil Embedding marks a chunk
// whose batch failed and must not be uploaded.
type EmbeddedChunk struct {
	Chunk
	Embedding []float32 `json:"embedding"`
}

// SearchResult is one hit from a similarity search. Lower distance is closer.
type SearchResult struct {
	Chunk
	Distance float32 `json:"distance"`
}

// Filterable chunk properties.
const (
	PropertyText     = "text"
	PropertySource   = "source"
	PropertyLanguage = "language"
	PropertyType     = "type"
	PropertyYear     = "year"
)

// Filter is an equality match on a single chunk property.
type Filter struct {
	Property string
	Value    any
}

// Validate checks that the filter can be expressed by every store.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	switch f.Property {
	case PropertyText, PropertySource, PropertyLanguage, PropertyType:
		switch f.Value.(type) {
		case string, lang.Language:
			return nil
		}
		return fmt.Errorf("%w: %s expects a string, got %T", ErrUnsupportedFilter, f.Property, f.Value)
	case PropertyYear:
		switch f.Value.(type) {
		case int, int32, int64:
			return nil
		}
		return fmt.Errorf("%w: year expects an integer, got %T", ErrUnsupportedFilter, f.Value)
	default:
		return fmt.Errorf("%w: property %q", ErrUnsupportedFilter, f.Property)
	}
}

// YearValue returns the filter value as int64. Only meaningful after Validate
// for a year filter.
func (f *Filter) YearValue() int64 {
	switch v := f.Value.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

// StringValue returns the filter value as a string.
func (f *Filter) StringValue() string {
	switch v := f.Value.(type) {
	case string:
		return v
	case lang.Language:
		return string(v)
	}
	return fmt.Sprint(f.Value)
}

// VectorStore is the similarity-search service chunks are indexed into.
// Implementations acquire and release their connection per call.
type VectorStore interface {
	// EnsureSchema creates the collection and its index if absent.
	EnsureSchema(ctx context.Context) error

	// Drop removes the collection and everything in it.
	Drop(ctx context.Context) error

	// Insert bulk-loads chunks. Every chunk must carry an embedding.
	Insert(ctx context.Context, chunks []EmbeddedChunk) error

	// Search returns the topK nearest chunks, optionally filtered.
	Search(ctx context.Context, vector []float32, topK int, filter *Filter) ([]SearchResult, error)
}
