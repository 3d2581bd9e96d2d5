package orchestrator

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Yates-Labs/bayan/internal/answer"
	"github.com/Yates-Labs/bayan/internal/config"
	"github.com/Yates-Labs/bayan/internal/ingest/api"
	"github.com/Yates-Labs/bayan/internal/ingest/web"
	"github.com/Yates-Labs/bayan/internal/rag"
	"github.com/Yates-Labs/bayan/internal/rag/store"
)

// NewVectorStore returns the backend selected by cfg.VectorStore.
func NewVectorStore(cfg *config.Config) (rag.VectorStore, error) {
	switch cfg.VectorStore {
	case config.StoreMilvus:
		mc := rag.DefaultMilvusConfig()
		mc.Address = cfg.MilvusAddress
		mc.APIKey = cfg.MilvusAPIKey
		mc.CollectionName = cfg.MilvusCollection
		mc.Dimension = cfg.EmbeddingDim
		return rag.NewMilvusStore(mc)
	case config.StorePgVector:
		return store.NewPgVectorStore(store.PgVectorConfig{
			DatabaseURL: cfg.DatabaseURL,
			Table:       cfg.PgVectorTable,
			Dimension:   cfg.EmbeddingDim,
		})
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStore, cfg.VectorStore)
	}
}

// NewEmbedder returns the OpenAI embedder configured by cfg.
func NewEmbedder(cfg *config.Config) (*rag.OpenAIEmbedder, error) {
	return rag.NewOpenAIEmbedder(rag.EmbedderConfig{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDim,
	})
}

// NewQAPipeline wires the query path against OpenAI and the configured
// vector store. Model names declared by prompts override cfg.
func NewQAPipeline(cfg *config.Config, prompts *config.Prompts, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prompts == nil {
		prompts = config.DefaultPrompts()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ApplyModels(prompts.Models())
	tuning := prompts.Tuning()

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	vectorStore, err := NewVectorStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}
	retriever, err := rag.NewRetriever(embedder, vectorStore, rag.RetrieverOptions{
		TopK:           tuning.SearchTopK,
		SortByDistance: cfg.SortByDistance,
	}, logger.Named("retriever"))
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	llm, err := answer.NewOpenAILLM(answer.LLMConfig{
		Model:   cfg.LLMModel,
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM: %w", err)
	}
	translator, err := answer.NewTranslator(llm, prompts, tuning, logger.Named("translator"))
	if err != nil {
		return nil, err
	}
	composer, err := answer.NewComposer(llm, prompts, tuning, logger.Named("composer"))
	if err != nil {
		return nil, err
	}

	logger.Info("query pipeline ready",
		zap.String("llm", cfg.LLMModel),
		zap.String("embedding", cfg.EmbeddingModel),
		zap.String("store", cfg.VectorStore),
		zap.String("prompts_version", prompts.Version()))
	return NewPipeline(translator, retriever, composer, prompts, logger)
}

// NewIngestion wires the ingestion path. Crawl settings come from cfg;
// opts carries the per-run switches.
func NewIngestion(cfg *config.Config, opts IngestOptions, crawl web.Config, logger *zap.Logger) (*Ingestion, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	batcher, err := rag.NewBatcher(embedder, rag.BatchOptions{
		BatchSize:  cfg.EmbedBatchSize,
		RetryDelay: cfg.EmbedRetryDelay,
		BatchDelay: cfg.EmbedBatchDelay,
	}, logger.Named("embedder"))
	if err != nil {
		return nil, err
	}
	vectorStore, err := NewVectorStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	apiDir := filepath.Join(opts.DataDir, APIDirName)
	return &Ingestion{
		Crawler:  web.New(crawl, logger.Named("crawler")),
		Fetcher:  api.NewFetcher(apiDir, 0, logger.Named("fetcher")),
		Datasets: api.NewIngestor(apiDir, logger.Named("datasets")),
		Embedder: batcher,
		Store:    vectorStore,
		Options:  opts,
		Logger:   logger,
	}, nil
}

// CrawlConfig maps cfg onto crawler settings.
func CrawlConfig(cfg *config.Config) web.Config {
	c := web.DefaultConfig()
	c.StartURL = cfg.CrawlStartURL
	c.MaxPages = cfg.CrawlMaxPages
	c.Timeout = cfg.CrawlTimeout
	c.RequestsPerSecond = cfg.CrawlRate
	return c
}
