package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/bayan/internal/orchestrator"
	"github.com/Yates-Labs/bayan/internal/server"
)

const shutdownTimeout = 15 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question answering API",
	Long: `Serve the HTTP API:

  GET  /          liveness
  GET  /health    health check
  POST /api/ask   {"question": "..."} -> {"answer": "...", "context": [...]}

Without OPENAI_API_KEY (or DATABASE_URL for the pgvector store) the server
still starts, and /api/ask answers 503 until it is configured.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :$PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.logger.Sync()

	// A nil *Pipeline must not reach the server as a non-nil interface.
	var answerer server.Answerer
	pipeline, err := orchestrator.NewQAPipeline(e.cfg, e.prompts, e.logger.Named("qa"))
	if err != nil {
		e.logger.Error("question answering disabled", zap.Error(err))
	} else {
		answerer = pipeline
	}

	opts := server.DefaultOptions()
	opts.Addr = e.cfg.Addr()
	if serveAddr != "" {
		opts.Addr = serveAddr
	}
	opts.AllowedOrigins = e.cfg.AllowedOrigins
	srv := server.New(opts, answerer, e.logger.Named("http"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
