package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/bayan/internal/answer"
	"github.com/Yates-Labs/bayan/internal/orchestrator"
)

var verbose bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question in Arabic or English",
	Long: `Ask a question against the indexed knowledge base.

The question's language is detected, it is translated into the other
language, both versions are searched, and the answer is written in the
language the question was asked in.

Required environment variables:
  OPENAI_API_KEY     - OpenAI API key for embeddings and the LLM
  MILVUS_ADDRESS     - Milvus server address (default: localhost:19530)

Examples:
  bayan ask "What is Saudi Arabia's GDP growth?"
  bayan ask "ما هو معدل التضخم في الرياض؟" --verbose`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&verbose, "verbose", false, "Show detected language, translation and status")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.logger.Sync()

	// Styling
	var (
		headerColor   = lipgloss.Color("#F780FF") // Bright pink
		questionColor = lipgloss.Color("#8BE9FD") // Cyan
		answerColor   = lipgloss.Color("#E9E9F4") // Light purple/white
		contextColor  = lipgloss.Color("#6272A4") // Muted purple
		errorColor    = lipgloss.Color("#FF5555") // Red
		successColor  = lipgloss.Color("#50FA7B") // Green
	)

	headerStyle := lipgloss.NewStyle().
		Foreground(headerColor).
		Bold(true)

	questionStyle := lipgloss.NewStyle().
		Foreground(questionColor).
		Italic(true)

	answerStyle := lipgloss.NewStyle().
		Foreground(answerColor)

	contextStyle := lipgloss.NewStyle().
		Foreground(contextColor).
		Italic(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(errorColor).
		Bold(true)

	successStyle := lipgloss.NewStyle().
		Foreground(successColor)

	fmt.Println()
	fmt.Println(headerStyle.Render("Question:"))
	fmt.Println(questionStyle.Render(question))
	fmt.Println()

	pipeline, err := orchestrator.NewQAPipeline(e.cfg, e.prompts, e.logger.Named("qa"))
	if err != nil {
		return fmt.Errorf("%s failed to create pipeline: %w", errorStyle.Render("Error:"), err)
	}

	ans, err := pipeline.Answer(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	if verbose {
		fmt.Println(contextStyle.Render(fmt.Sprintf("→ Language: %s", ans.Language)))
		if ans.Translated != "" {
			fmt.Println(contextStyle.Render(fmt.Sprintf("→ Translation: %s", ans.Translated)))
		}
		status := fmt.Sprintf("→ Status: %s", ans.Status)
		if ans.Status == answer.StatusDone {
			fmt.Println(successStyle.Render(status))
		} else {
			fmt.Println(errorStyle.Render(status))
		}
		fmt.Println()
	}

	fmt.Println(headerStyle.Render("Answer:"))
	fmt.Println()
	fmt.Println(answerStyle.Render(strings.TrimSpace(ans.Text)))
	fmt.Println()

	if len(ans.Sources) > 0 {
		fmt.Println(headerStyle.Render("Sources:"))
		for _, s := range ans.Sources {
			fmt.Println(contextStyle.Render("  • " + s))
		}
		fmt.Println()
	}

	return nil
}
