package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Vector store backends.
const (
	StoreMilvus   = "milvus"
	StorePgVector = "pgvector"
)

var (
	ErrMissingAPIKey      = errors.New("OPENAI_API_KEY not set")
	ErrMissingDatabaseURL = errors.New("DATABASE_URL not set")
	ErrUnknownStore       = errors.New("unknown vector store")
)

// DefaultAllowedOrigins are the browser origins allowed by CORS when
// CORS_ALLOWED_ORIGINS is unset.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"https://*.vercel.app",
	"https://*.railway.app",
	"https://data-saudi-chatbot-personal.vercel.app",
}

// Config is the process configuration read from the environment.
type Config struct {
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	LLMModel       string
	EmbeddingModel string
	EmbeddingDim   int

	VectorStore      string
	MilvusAddress    string
	MilvusAPIKey     string
	MilvusCollection string
	DatabaseURL      string
	PgVectorTable    string

	Port           string
	PromptsFile    string
	DataDir        string
	AllowedOrigins []string

	CrawlStartURL string
	CrawlMaxPages int
	CrawlTimeout  time.Duration
	CrawlRate     float64

	EmbedBatchSize  int
	EmbedBatchDelay time.Duration
	EmbedRetryDelay time.Duration
	SortByDistance  bool

	LogLevel  string
	LogFormat string
}

// Load reads .env when present and then the environment. Unparsable
// numeric values fall back to their defaults with a warning.
func Load(logger *zap.Logger) *Config {
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = godotenv.Load()

	e := env{logger: logger}
	return &Config{
		OpenAIAPIKey:   e.getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  e.getEnv("OPENAI_BASE_URL", ""),
		LLMModel:       e.getEnv("LLM_MODEL", "gpt-5-chat-latest"),
		EmbeddingModel: e.getEnv("EMBEDDING_MODEL", "text-embedding-3-large"),
		EmbeddingDim:   e.getEnvInt("EMBEDDING_DIM", 3072),

		VectorStore:      strings.ToLower(e.getEnv("VECTOR_STORE", StoreMilvus)),
		MilvusAddress:    e.getEnv("MILVUS_ADDRESS", "localhost:19530"),
		MilvusAPIKey:     e.getEnv("MILVUS_API_KEY", ""),
		MilvusCollection: e.getEnv("MILVUS_COLLECTION", "Chunk"),
		DatabaseURL:      e.getEnv("DATABASE_URL", ""),
		PgVectorTable:    e.getEnv("PGVECTOR_TABLE", "chunks"),

		Port:           e.getEnv("PORT", "8000"),
		PromptsFile:    e.getEnv("PROMPTS_FILE", "prompts.yaml"),
		DataDir:        e.getEnv("DATA_DIR", "data"),
		AllowedOrigins: e.getEnvList("CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins),

		CrawlStartURL: e.getEnv("CRAWL_START_URL", "https://datasaudi.sa/en/"),
		CrawlMaxPages: e.getEnvInt("CRAWL_MAX_PAGES", 20),
		CrawlTimeout:  e.getEnvDuration("CRAWL_TIMEOUT", 10*time.Second),
		CrawlRate:     e.getEnvFloat("CRAWL_RATE", 2),

		EmbedBatchSize:  e.getEnvInt("EMBED_BATCH_SIZE", 256),
		EmbedBatchDelay: e.getEnvDuration("EMBED_BATCH_DELAY", 600*time.Millisecond),
		EmbedRetryDelay: e.getEnvDuration("EMBED_RETRY_DELAY", 2*time.Second),
		SortByDistance:  e.getEnvBool("SORT_BY_DISTANCE", false),

		LogLevel:  e.getEnv("LOG_LEVEL", "info"),
		LogFormat: e.getEnv("LOG_FORMAT", "console"),
	}
}

// Validate reports missing credentials for the selected backends.
func (c *Config) Validate() error {
	var errs []error
	if c.OpenAIAPIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	switch c.VectorStore {
	case StoreMilvus:
	case StorePgVector:
		if c.DatabaseURL == "" {
			errs = append(errs, ErrMissingDatabaseURL)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownStore, c.VectorStore))
	}
	return errors.Join(errs...)
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

type env struct {
	logger *zap.Logger
}

func (e env) getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func (e env) getEnvInt(key string, def int) int {
	v := e.getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.warn(key, v, def)
		return def
	}
	return n
}

func (e env) getEnvFloat(key string, def float64) float64 {
	v := e.getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.warn(key, v, def)
		return def
	}
	return f
}

func (e env) getEnvBool(key string, def bool) bool {
	v := e.getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.warn(key, v, def)
		return def
	}
	return b
}

// getEnvDuration accepts Go durations ("600ms") or a bare number of seconds.
func (e env) getEnvDuration(key string, def time.Duration) time.Duration {
	v := e.getEnv(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	e.warn(key, v, def)
	return def
}

func (e env) getEnvList(key string, def []string) []string {
	v := e.getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (e env) warn(key, value string, def any) {
	e.logger.Warn("invalid environment value, using default",
		zap.String("key", key), zap.String("value", value), zap.Any("default", def))
}
