package orchestrator

import (
	"errors"
	"testing"
	"time"

	"github.com/Yates-Labs/bayan/internal/config"
	"github.com/Yates-Labs/bayan/internal/rag"
	"github.com/Yates-Labs/bayan/internal/rag/store"
)

func testConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:     "sk-test",
		LLMModel:         "gpt-5-chat-latest",
		EmbeddingModel:   "text-embedding-3-large",
		EmbeddingDim:     3072,
		VectorStore:      config.StoreMilvus,
		MilvusAddress:    "localhost:19530",
		MilvusCollection: "Chunk",
		PgVectorTable:    "chunks",
		CrawlStartURL:    "https://example.com/",
		CrawlMaxPages:    5,
		CrawlTimeout:     3 * time.Second,
		CrawlRate:        1,
	}
}

func TestNewVectorStore(t *testing.T) {
	cfg := testConfig()
	s, err := NewVectorStore(cfg)
	if err != nil {
		t.Fatalf("milvus store: %v", err)
	}
	if _, ok := s.(*rag.MilvusStore); !ok {
		t.Errorf("expected *rag.MilvusStore, got %T", s)
	}

	cfg.VectorStore = config.StorePgVector
	cfg.DatabaseURL = "postgres://localhost/bayan"
	s, err = NewVectorStore(cfg)
	if err != nil {
		t.Fatalf("pgvector store: %v", err)
	}
	if _, ok := s.(*store.PgVectorStore); !ok {
		t.Errorf("expected *store.PgVectorStore, got %T", s)
	}

	cfg.VectorStore = "redis"
	if _, err := NewVectorStore(cfg); !errors.Is(err, config.ErrUnknownStore) {
		t.Errorf("expected ErrUnknownStore, got %v", err)
	}
}

func TestNewQAPipeline(t *testing.T) {
	cfg := testConfig()
	prompts := config.DefaultPrompts()
	prompts.ModelNames = config.Models{LLM: "gpt-4o"}

	p, err := NewQAPipeline(cfg, prompts, nil)
	if err != nil {
		t.Fatalf("NewQAPipeline failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected pipeline")
	}
	if cfg.LLMModel != "gpt-4o" {
		t.Errorf("expected model from prompts file, got %s", cfg.LLMModel)
	}
}

func TestNewQAPipeline_MissingKey(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	if _, err := NewQAPipeline(cfg, nil, nil); !errors.Is(err, config.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewIngestion(t *testing.T) {
	cfg := testConfig()
	opts := DefaultIngestOptions()
	opts.DataDir = t.TempDir()

	in, err := NewIngestion(cfg, opts, CrawlConfig(cfg), nil)
	if err != nil {
		t.Fatalf("NewIngestion failed: %v", err)
	}
	if in.Crawler == nil || in.Fetcher == nil || in.Datasets == nil || in.Embedder == nil || in.Store == nil {
		t.Errorf("ingestion not fully wired: %+v", in)
	}
}

func TestCrawlConfig(t *testing.T) {
	c := CrawlConfig(testConfig())
	if c.StartURL != "https://example.com/" || c.MaxPages != 5 || c.Timeout != 3*time.Second || c.RequestsPerSecond != 1 {
		t.Errorf("unexpected crawl config %+v", c)
	}
	if c.MinTextLength != 25 || c.UserAgent == "" {
		t.Errorf("crawl defaults not kept: %+v", c)
	}
}
