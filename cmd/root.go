package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/bayan/internal/config"
	"github.com/Yates-Labs/bayan/internal/logging"
)

var (
	promptsFile string
	logLevel    string
	logFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "bayan",
	Short: "Bayan - bilingual question answering over Saudi open data",
	Long: `Bayan answers questions about Saudi statistics in Arabic or English.

It crawls datasaudi.sa and the statistical APIs behind it, indexes the
content in a vector store, and answers each question by searching in both
languages and grounding a language model on what it finds.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&promptsFile, "prompts", "", "Prompts file (default $PROMPTS_FILE or prompts.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (default $LOG_FORMAT)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every subcommand needs before it can do work.
type env struct {
	cfg     *config.Config
	prompts *config.Prompts
	logger  *zap.Logger
}

func loadEnv() (*env, error) {
	cfg := config.Load(nil)
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if promptsFile != "" {
		cfg.PromptsFile = promptsFile
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	prompts := config.LoadPrompts(cfg.PromptsFile, logger.Named("prompts"))
	if err := prompts.Validate(); err != nil {
		logger.Warn("prompts file incomplete, missing entries use defaults", zap.Error(err))
	}

	return &env{cfg: cfg, prompts: prompts, logger: logger}, nil
}
