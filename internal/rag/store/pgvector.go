// Package store holds vector store backends other than the default Milvus
// one in package rag.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/Yates-Labs/bayan/internal/lang"
	"github.com/Yates-Labs/bayan/internal/rag"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// PgVectorConfig configures the Postgres + pgvector store.
type PgVectorConfig struct {
	DatabaseURL string
	Table       string
	Dimension   int
}

// PgVectorStore implements rag.VectorStore on Postgres with the pgvector
// extension. Each operation opens and closes its own connection.
type PgVectorStore struct {
	config PgVectorConfig
	open   func(dsn string) (*sql.DB, error)
}

// NewPgVectorStore validates config and returns a store.
func NewPgVectorStore(config PgVectorConfig) (*PgVectorStore, error) {
	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	if !tableNamePattern.MatchString(config.Table) {
		return nil, fmt.Errorf("invalid table name %q", config.Table)
	}
	if config.Dimension <= 0 {
		return nil, rag.ErrInvalidDimension
	}
	return &PgVectorStore{
		config: config,
		open:   func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) },
	}, nil
}

func (s *PgVectorStore) withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	db, err := s.open(s.config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", rag.ErrConnectionFailed, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", rag.ErrConnectionFailed, err)
	}
	return fn(db)
}

func (s *PgVectorStore) schemaStatements() []string {
	t := s.config.Table
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id        uuid PRIMARY KEY,
			text      text NOT NULL,
			source    text NOT NULL,
			year      integer,
			language  varchar(8) NOT NULL,
			type      varchar(64) NOT NULL DEFAULT '',
			score     double precision NOT NULL DEFAULT 1,
			embedding vector(%d) NOT NULL
		)`, t, s.config.Dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)`, t, t),
	}
}

// EnsureSchema creates the extension, table and HNSW cosine index if absent.
func (s *PgVectorStore) EnsureSchema(ctx context.Context) error {
	return s.withDB(ctx, func(db *sql.DB) error {
		for _, stmt := range s.schemaStatements() {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		return nil
	})
}

// Drop removes the chunk table.
func (s *PgVectorStore) Drop(ctx context.Context) error {
	return s.withDB(ctx, func(db *sql.DB) error {
		if _, err := db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.config.Table)); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
		return nil
	})
}

// Insert adds chunks in a single transaction.
func (s *PgVectorStore) Insert(ctx context.Context, chunks []rag.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for i, c := range chunks {
		if len(c.Embedding) != s.config.Dimension {
			return fmt.Errorf("%w: chunk %d has %d, expected %d", rag.ErrInvalidDimension, i, len(c.Embedding), s.config.Dimension)
		}
	}

	q := fmt.Sprintf(`
		INSERT INTO %s (id, text, source, year, language, type, score, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.config.Table)

	return s.withDB(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, &sql.TxOptions{})
		if err != nil {
			return fmt.Errorf("%w: %v", rag.ErrInsertFailed, err)
		}

		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: %v", rag.ErrInsertFailed, err)
		}
		defer stmt.Close()

		for i := range chunks {
			c := &chunks[i]
			var year sql.NullInt64
			if c.Year != nil {
				year = sql.NullInt64{Int64: int64(*c.Year), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx,
				uuid.New(), c.Text, c.Source, year, string(c.Language), c.Type, c.Score, pgvector.NewVector(c.Embedding),
			); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("%w: %v", rag.ErrInsertFailed, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: %v", rag.ErrInsertFailed, err)
		}
		return nil
	})
}

// Search orders by cosine distance, nearest first.
func (s *PgVectorStore) Search(ctx context.Context, vector []float32, topK int, filter *rag.Filter) ([]rag.SearchResult, error) {
	if len(vector) != s.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", rag.ErrInvalidDimension, s.config.Dimension, len(vector))
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	q, args, err := s.searchQuery(vector, topK, filter)
	if err != nil {
		return nil, err
	}

	var out []rag.SearchResult
	err = s.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("%w: %v", rag.ErrSearchFailed, err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				r        rag.SearchResult
				year     sql.NullInt64
				language string
				distance float64
			)
			if err := rows.Scan(&r.Text, &r.Source, &year, &language, &r.Type, &r.Score, &distance); err != nil {
				return fmt.Errorf("%w: %v", rag.ErrSearchFailed, err)
			}
			if year.Valid {
				y := int(year.Int64)
				r.Year = &y
			}
			r.Language = lang.Language(language)
			r.Distance = float32(distance)
			out = append(out, r)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("%w: %v", rag.ErrSearchFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// searchQuery builds the similarity query. Property names are checked by
// Filter.Validate so only whitelisted columns reach the SQL text.
func (s *PgVectorStore) searchQuery(vector []float32, topK int, filter *rag.Filter) (string, []any, error) {
	args := []any{pgvector.NewVector(vector)}
	var where string

	if filter != nil {
		if err := filter.Validate(); err != nil {
			return "", nil, err
		}
		where = fmt.Sprintf("WHERE %s = $2", filter.Property)
		if filter.Property == rag.PropertyYear {
			args = append(args, filter.YearValue())
		} else {
			args = append(args, filter.StringValue())
		}
	}
	args = append(args, topK)

	q := fmt.Sprintf(`
		SELECT text, source, year, language, type, score, embedding <=> $1 AS distance
		FROM %s
		%s
		ORDER BY embedding <=> $1
		LIMIT $%d
	`, s.config.Table, where, len(args))

	return strings.TrimSpace(q), args, nil
}
