package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/bayan/internal/orchestrator"
)

var (
	startURL  string
	maxPages  int
	skipFetch bool
	skipCrawl bool
	keepFiles bool
	recreate  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Crawl, fetch, embed and index the knowledge base",
	Long: `Rebuild the vector index from datasaudi.sa and its statistical APIs.

Steps:
  0. Reset the collection (--recreate, default on) or create it if absent
  1. Fetch every API dataset in English and Arabic into $DATA_DIR/apis
  2. Crawl the site breadth-first and format the dataset rows
  3. Chunk and deduplicate, saving $DATA_DIR/chunks.json
  4. Embed in paced batches, saving $DATA_DIR/chunks_with_embeddings.json
  5. Upload every chunk that has an embedding
  6. Remove the intermediate files (unless --keep-files)

Examples:
  bayan ingest
  bayan ingest --max-pages 50 --keep-files
  bayan ingest --skip-fetch --skip-crawl --recreate=false`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&startURL, "start-url", "", "Crawl start URL (default $CRAWL_START_URL)")
	ingestCmd.Flags().IntVar(&maxPages, "max-pages", 0, "Page budget for the crawl (default $CRAWL_MAX_PAGES)")
	ingestCmd.Flags().BoolVar(&skipFetch, "skip-fetch", false, "Reuse dataset files already under $DATA_DIR/apis")
	ingestCmd.Flags().BoolVar(&skipCrawl, "skip-crawl", false, "Do not crawl the website")
	ingestCmd.Flags().BoolVar(&keepFiles, "keep-files", false, "Keep the intermediate JSON files after upload")
	ingestCmd.Flags().BoolVar(&recreate, "recreate", true, "Drop and recreate the collection before uploading")
}

func runIngest(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.logger.Sync()

	crawl := orchestrator.CrawlConfig(e.cfg)
	if startURL != "" {
		crawl.StartURL = startURL
	}
	if maxPages > 0 {
		crawl.MaxPages = maxPages
	}

	opts := orchestrator.DefaultIngestOptions()
	opts.DataDir = e.cfg.DataDir
	opts.SkipFetch = skipFetch
	opts.SkipCrawl = skipCrawl
	opts.KeepFiles = keepFiles
	opts.Recreate = recreate

	ingestion, err := orchestrator.NewIngestion(e.cfg, opts, crawl, e.logger.Named("ingest"))
	if err != nil {
		return fmt.Errorf("ingestion setup failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := ingestion.Run(ctx)
	printReport(report)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func printReport(r orchestrator.IngestReport) {
	var (
		headerColor  = lipgloss.Color("#F780FF") // Bright pink/magenta
		labelColor   = lipgloss.Color("#BD93F9") // Purple
		numberColor  = lipgloss.Color("#FF79C6") // Pink
		borderColor  = lipgloss.Color("#6272A4") // Muted purple
		summaryColor = lipgloss.Color("#8BE9FD") // Cyan accent
		warnColor    = lipgloss.Color("#FFB86C") // Orange
	)

	const (
		labelWidth = 26
		valueWidth = 10
	)

	headerStyle := lipgloss.NewStyle().
		Foreground(headerColor).
		Bold(true).
		Padding(0, 1)
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	labelStyle := lipgloss.NewStyle().
		Foreground(labelColor).
		Padding(0, 1).
		Width(labelWidth)
	valueStyle := lipgloss.NewStyle().
		Foreground(numberColor).
		Padding(0, 1).
		Width(valueWidth).
		Align(lipgloss.Right)

	fmt.Println()
	fmt.Println(strings.Join([]string{
		headerStyle.Width(labelWidth).Render("STEP"),
		headerStyle.Width(valueWidth).Render("COUNT"),
	}, borderStyle.Render("│")))
	fmt.Println(borderStyle.Render(strings.Repeat("─", labelWidth) + "┼" + strings.Repeat("─", valueWidth)))

	rows := []struct {
		label string
		value int
	}{
		{"API files fetched", r.FilesFetched},
		{"Pages crawled", r.Pages},
		{"Pages failed", r.PagesFailed},
		{"HTML records", r.HTMLRecords},
		{"API records", r.APIRecords},
		{"Chunks", r.Chunks},
		{"Embedded", r.Embedded},
		{"Embedding failed", r.Failed},
		{"Uploaded", r.Uploaded},
	}
	for _, row := range rows {
		fmt.Println(strings.Join([]string{
			labelStyle.Render(row.label),
			valueStyle.Render(fmt.Sprintf("%d", row.value)),
		}, borderStyle.Render("│")))
	}

	fmt.Println()
	summary := fmt.Sprintf("Total: %d of %d chunks uploaded", r.Uploaded, r.Chunks)
	fmt.Println(lipgloss.NewStyle().Foreground(summaryColor).Italic(true).Render(summary))
	if r.Failed > 0 {
		warn := fmt.Sprintf("%d chunks had no embedding and were not uploaded", r.Failed)
		fmt.Println(lipgloss.NewStyle().Foreground(warnColor).Render(warn))
	}
}
