package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Yates-Labs/bayan/internal/ingest/api"
	"github.com/Yates-Labs/bayan/internal/ingest/web"
	"github.com/Yates-Labs/bayan/internal/rag"
)

// APIDirName is the subdirectory of the data dir holding fetched datasets.
const APIDirName = "apis"

// Crawler produces records from a website.
type Crawler interface {
	Crawl(ctx context.Context) (*web.Result, error)
}

// DatasetFetcher downloads statistical datasets to disk.
type DatasetFetcher interface {
	FetchAll(ctx context.Context, endpoints []api.Endpoint) ([]string, error)
}

// RecordSource turns downloaded datasets into records.
type RecordSource interface {
	Records() ([]rag.Record, error)
}

// ChunkEmbedder attaches vectors to chunks.
type ChunkEmbedder interface {
	EmbedChunks(ctx context.Context, chunks []rag.Chunk) ([]rag.EmbeddedChunk, rag.BatchReport, error)
}

// IngestOptions controls one ingestion run.
type IngestOptions struct {
	DataDir         string
	Endpoints       []api.Endpoint
	ChunkSize       int
	UploadBatchSize int

	SkipFetch bool
	SkipCrawl bool
	KeepFiles bool
	// Recreate drops the collection first so a run fully replaces it.
	Recreate bool
}

// DefaultIngestOptions returns the production ingestion settings.
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		DataDir:         "data",
		Endpoints:       api.DefaultEndpoints(),
		ChunkSize:       rag.DefaultChunkSize,
		UploadBatchSize: rag.DefaultIndexOptions().BatchSize,
		Recreate:        true,
	}
}

// IngestReport summarizes a run.
type IngestReport struct {
	FilesFetched int
	Pages        int
	PagesFailed  int
	HTMLRecords  int
	APIRecords   int
	Chunks       int
	Embedded     int
	Failed       int
	Uploaded     int
	Skipped      int
}

// Ingestion runs the offline path from raw sources to stored vectors.
type Ingestion struct {
	Crawler  Crawler
	Fetcher  DatasetFetcher
	Datasets RecordSource
	Embedder ChunkEmbedder
	Store    rag.VectorStore
	Options  IngestOptions
	Logger   *zap.Logger
}

func (in *Ingestion) validate() error {
	if in.Embedder == nil || in.Store == nil {
		return fmt.Errorf("%w: embedder and store are required", ErrInvalidPipeline)
	}
	if !in.Options.SkipCrawl && in.Crawler == nil {
		return fmt.Errorf("%w: crawler is required unless crawling is skipped", ErrInvalidPipeline)
	}
	if !in.Options.SkipFetch && in.Fetcher == nil {
		return fmt.Errorf("%w: fetcher is required unless fetching is skipped", ErrInvalidPipeline)
	}
	return nil
}

// Paths of the intermediate artifacts.
func (o IngestOptions) apiDir() string { return filepath.Join(o.DataDir, APIDirName) }
func (o IngestOptions) chunksPath() string { return filepath.Join(o.DataDir, rag.ChunksFile) }
func (o IngestOptions) embeddedPath() string { return filepath.Join(o.DataDir, rag.EmbeddedChunksFile) }

// Run executes every step in order. Store failures and cancellation abort
// the run; source failures are logged and the run continues with what it has.
func (in *Ingestion) Run(ctx context.Context) (IngestReport, error) {
	var report IngestReport
	if err := in.validate(); err != nil {
		return report, err
	}
	logger := in.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := in.Options

	logger.Info("step 0: preparing vector store", zap.Bool("recreate", opts.Recreate))
	if err := rag.PrepareStore(ctx, in.Store, opts.Recreate); err != nil {
		return report, err
	}

	if opts.SkipFetch {
		logger.Info("step 1: skipping api fetch")
	} else {
		logger.Info("step 1: fetching api datasets", zap.Int("endpoints", len(opts.Endpoints)))
		saved, err := in.Fetcher.FetchAll(ctx, opts.Endpoints)
		report.FilesFetched = len(saved)
		if err != nil {
			return report, fmt.Errorf("fetch datasets: %w", err)
		}
	}

	logger.Info("step 2: collecting records")
	var records []rag.Record
	if !opts.SkipCrawl {
		res, err := in.Crawler.Crawl(ctx)
		if err != nil {
			return report, fmt.Errorf("crawl: %w", err)
		}
		report.Pages = res.PagesCrawled
		report.PagesFailed = res.PagesFailed
		report.HTMLRecords = len(res.Records)
		records = append(records, res.Records...)
	}
	if in.Datasets != nil {
		apiRecords, err := in.Datasets.Records()
		if err != nil {
			logger.Error("api ingestion failed, continuing without datasets", zap.Error(err))
		}
		report.APIRecords = len(apiRecords)
		records = append(records, apiRecords...)
	}

	logger.Info("step 3: chunking", zap.Int("records", len(records)))
	chunks := rag.ChunkRecords(records, opts.ChunkSize)
	report.Chunks = len(chunks)
	if err := rag.WriteJSON(opts.chunksPath(), chunks); err != nil {
		return report, fmt.Errorf("save chunks: %w", err)
	}
	logger.Info("saved chunks", zap.Int("chunks", len(chunks)), zap.String("path", opts.chunksPath()))

	logger.Info("step 4: embedding")
	chunks, err := rag.ReadChunks(opts.chunksPath())
	if err != nil {
		return report, err
	}
	embedded, batchReport, err := in.Embedder.EmbedChunks(ctx, chunks)
	report.Embedded = batchReport.Embedded
	report.Failed = batchReport.Failed
	if err != nil {
		return report, fmt.Errorf("embed chunks: %w", err)
	}
	if err := rag.WriteJSON(opts.embeddedPath(), embedded); err != nil {
		return report, fmt.Errorf("save embedded chunks: %w", err)
	}

	logger.Info("step 5: uploading")
	embedded, err = rag.ReadEmbedded(opts.embeddedPath())
	if err != nil {
		return report, err
	}
	indexReport, err := rag.IndexChunks(ctx, in.Store, embedded, rag.IndexOptions{BatchSize: opts.UploadBatchSize}, logger)
	report.Uploaded = indexReport.Uploaded
	report.Skipped = indexReport.Skipped
	if err != nil {
		return report, err
	}

	if opts.KeepFiles {
		logger.Info("step 6: keeping intermediate files", zap.String("dir", opts.DataDir))
	} else {
		logger.Info("step 6: cleaning up intermediate files")
		in.cleanup(logger)
	}

	logger.Info("ingestion complete",
		zap.Int("chunks", report.Chunks),
		zap.Int("embedded", report.Embedded),
		zap.Int("failed", report.Failed),
		zap.Int("uploaded", report.Uploaded))
	return report, nil
}

func (in *Ingestion) cleanup(logger *zap.Logger) {
	opts := in.Options
	for _, path := range []string{opts.chunksPath(), opts.embeddedPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("could not remove file", zap.String("path", path), zap.Error(err))
		}
	}
	if err := os.RemoveAll(opts.apiDir()); err != nil {
		logger.Warn("could not remove api directory", zap.String("path", opts.apiDir()), zap.Error(err))
	}
}
