package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var askChatID string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against a chat session",
	Long: `Answers a question from the session's uploaded documents. Questions
outside the session role's remit are declined without touching the
documents.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askChatID, "chat", "", "chat session ID (required)")
	_ = askCmd.MarkFlagRequired("chat")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	answer, err := askService.Ask(cmd.Context(), askChatID, args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range answer.Sources {
			cmd.Printf("  - %s (%s)\n", src.SourceFile, src.DocType)
		}
	}
	return nil
}
