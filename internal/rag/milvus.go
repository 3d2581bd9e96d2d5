package rag

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/Yates-Labs/bayan/internal/lang"
)

// Common errors for vector store operations
var (
	ErrInvalidDimension = errors.New("invalid vector dimension")
	ErrEmptyRecords     = errors.New("no records provided for insertion")
	ErrConnectionFailed = errors.New("failed to connect to vector store")
	ErrInsertFailed     = errors.New("failed to insert records")
	ErrSearchFailed     = errors.New("failed to search vectors")
)

// Milvus field names.
const (
	fieldID        = "id"
	fieldText      = "text"
	fieldSource    = "source"
	fieldYear      = "year"
	fieldLanguage  = "language"
	fieldType      = "type"
	fieldScore     = "score"
	fieldEmbedding = "embedding"
)

var milvusOutputFields = []string{fieldText, fieldSource, fieldYear, fieldLanguage, fieldType, fieldScore}

// MilvusConfig holds configuration for Milvus connection and collection
type MilvusConfig struct {
	Address        string // Milvus server address (e.g., "localhost:19530")
	APIKey         string // optional, for managed Milvus
	CollectionName string
	Dimension      int // must match the embedding model

	// HNSW index parameters
	M              int
	EfConstruction int
	SearchEf       int
}

// DefaultMilvusConfig returns the local development configuration.
func DefaultMilvusConfig() MilvusConfig {
	return MilvusConfig{
		Address:        "localhost:19530",
		CollectionName: "Chunk",
		Dimension:      3072,
		M:              16,
		EfConstruction: 256,
		SearchEf:       64,
	}
}

// MilvusStore implements VectorStore using Milvus. It holds no connection;
// every operation dials, does its work and closes.
type MilvusStore struct {
	config MilvusConfig
	dial   func(ctx context.Context, cfg client.Config) (client.Client, error)
}

// NewMilvusStore validates config and returns a store.
func NewMilvusStore(config MilvusConfig) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	if config.CollectionName == "" {
		return nil, fmt.Errorf("collection name cannot be empty")
	}
	def := DefaultMilvusConfig()
	if config.M <= 0 {
		config.M = def.M
	}
	if config.EfConstruction <= 0 {
		config.EfConstruction = def.EfConstruction
	}
	if config.SearchEf <= 0 {
		config.SearchEf = def.SearchEf
	}
	return &MilvusStore{config: config, dial: client.NewClient}, nil
}

func (m *MilvusStore) withClient(ctx context.Context, fn func(c client.Client) error) error {
	c, err := m.dial(ctx, client.Config{Address: m.config.Address, APIKey: m.config.APIKey})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer c.Close()
	return fn(c)
}

// schema describes the chunk collection.
func (m *MilvusStore) schema() *entity.Schema {
	varchar := func(name string, max int) *entity.Field {
		return &entity.Field{
			Name:       name,
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": strconv.Itoa(max)},
		}
	}

	return &entity.Schema{
		CollectionName: m.config.CollectionName,
		Description:    "bilingual knowledge chunks",
		AutoID:         true,
		Fields: []*entity.Field{
			{Name: fieldID, DataType: entity.FieldTypeInt64, PrimaryKey: true, AutoID: true},
			varchar(fieldText, 65535),
			varchar(fieldSource, 2048),
			{Name: fieldYear, DataType: entity.FieldTypeInt64}, // 0 when absent
			varchar(fieldLanguage, 8),
			varchar(fieldType, 64),
			{Name: fieldScore, DataType: entity.FieldTypeDouble},
			{
				Name:       fieldEmbedding,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(m.config.Dimension)},
			},
		},
	}
}

// EnsureSchema creates the collection with an HNSW cosine index if it does
// not exist, then loads it.
func (m *MilvusStore) EnsureSchema(ctx context.Context) error {
	return m.withClient(ctx, func(c client.Client) error {
		has, err := c.HasCollection(ctx, m.config.CollectionName)
		if err != nil {
			return fmt.Errorf("failed to check collection existence: %w", err)
		}

		if !has {
			if err := c.CreateCollection(ctx, m.schema(), entity.DefaultShardNumber); err != nil {
				return fmt.Errorf("failed to create collection: %w", err)
			}

			idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
			if err != nil {
				return fmt.Errorf("failed to create index config: %w", err)
			}
			if err := c.CreateIndex(ctx, m.config.CollectionName, fieldEmbedding, idx, false); err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
		}

		if err := c.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
			return fmt.Errorf("failed to load collection: %w", err)
		}
		return nil
	})
}

// Drop deletes the collection if it exists.
func (m *MilvusStore) Drop(ctx context.Context) error {
	return m.withClient(ctx, func(c client.Client) error {
		has, err := c.HasCollection(ctx, m.config.CollectionName)
		if err != nil {
			return fmt.Errorf("failed to check collection existence: %w", err)
		}
		if !has {
			return nil
		}
		if err := c.DropCollection(ctx, m.config.CollectionName); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
		return nil
	})
}

// Insert adds chunks to the collection and flushes.
func (m *MilvusStore) Insert(ctx context.Context, chunks []EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	sources := make([]string, len(chunks))
	years := make([]int64, len(chunks))
	languages := make([]string, len(chunks))
	types := make([]string, len(chunks))
	scores := make([]float64, len(chunks))
	embeddings := make([][]float32, len(chunks))

	for i, c := range chunks {
		if len(c.Embedding) != m.config.Dimension {
			return fmt.Errorf("%w: chunk %d has %d, expected %d", ErrInvalidDimension, i, len(c.Embedding), m.config.Dimension)
		}
		texts[i] = c.Text
		sources[i] = c.Source
		if c.Year != nil {
			years[i] = int64(*c.Year)
		}
		languages[i] = string(c.Language)
		types[i] = c.Type
		scores[i] = c.Score
		embeddings[i] = c.Embedding
	}

	columns := []entity.Column{
		entity.NewColumnVarChar(fieldText, texts),
		entity.NewColumnVarChar(fieldSource, sources),
		entity.NewColumnInt64(fieldYear, years),
		entity.NewColumnVarChar(fieldLanguage, languages),
		entity.NewColumnVarChar(fieldType, types),
		entity.NewColumnDouble(fieldScore, scores),
		entity.NewColumnFloatVector(fieldEmbedding, m.config.Dimension, embeddings),
	}

	return m.withClient(ctx, func(c client.Client) error {
		if _, err := c.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
			return fmt.Errorf("%w: %v", ErrInsertFailed, err)
		}
		if err := c.Flush(ctx, m.config.CollectionName, false); err != nil {
			return fmt.Errorf("failed to flush data: %w", err)
		}
		return nil
	})
}

// Search performs top-K cosine search. Distances are 1 - similarity.
func (m *MilvusStore) Search(ctx context.Context, vector []float32, topK int, filter *Filter) ([]SearchResult, error) {
	if len(vector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(vector))
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	expr, err := milvusExpr(filter)
	if err != nil {
		return nil, err
	}

	sp, err := entity.NewIndexHNSWSearchParam(m.config.SearchEf)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	var hits []SearchResult
	err = m.withClient(ctx, func(c client.Client) error {
		results, err := c.Search(
			ctx,
			m.config.CollectionName,
			nil, // partition names
			expr,
			milvusOutputFields,
			[]entity.Vector{entity.FloatVector(vector)},
			fieldEmbedding,
			entity.COSINE,
			topK,
			sp,
		)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSearchFailed, err)
		}
		if len(results) == 0 {
			return nil
		}
		hits = parseMilvusResult(results[0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func parseMilvusResult(res client.SearchResult) []SearchResult {
	hits := make([]SearchResult, res.ResultCount)
	for i := range hits {
		if i < len(res.Scores) {
			hits[i].Distance = 1 - res.Scores[i]
		}
	}

	for _, field := range res.Fields {
		switch col := field.(type) {
		case *entity.ColumnVarChar:
			data := col.Data()
			for i := 0; i < len(hits) && i < len(data); i++ {
				switch col.Name() {
				case fieldText:
					hits[i].Text = data[i]
				case fieldSource:
					hits[i].Source = data[i]
				case fieldLanguage:
					hits[i].Language = lang.Language(data[i])
				case fieldType:
					hits[i].Type = data[i]
				}
			}
		case *entity.ColumnInt64:
			if col.Name() != fieldYear {
				continue
			}
			data := col.Data()
			for i := 0; i < len(hits) && i < len(data); i++ {
				if data[i] != 0 {
					year := int(data[i])
					hits[i].Year = &year
				}
			}
		case *entity.ColumnDouble:
			if col.Name() != fieldScore {
				continue
			}
			data := col.Data()
			for i := 0; i < len(hits) && i < len(data); i++ {
				hits[i].Score = data[i]
			}
		}
	}

	return hits
}

// milvusExpr renders an equality filter as a Milvus boolean expression.
func milvusExpr(filter *Filter) (string, error) {
	if filter == nil {
		return "", nil
	}
	if err := filter.Validate(); err != nil {
		return "", err
	}
	if filter.Property == PropertyYear {
		return fmt.Sprintf("%s == %d", fieldYear, filter.YearValue()), nil
	}
	return fmt.Sprintf("%s == %s", filter.Property, strconv.Quote(filter.StringValue())), nil
}
