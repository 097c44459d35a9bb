package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [chat-id]",
	Short: "Show a chat session's history",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	messages, err := sessionService.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}

	if len(messages) == 0 {
		cmd.Println("No messages yet.")
		return nil
	}

	for _, msg := range messages {
		cmd.Printf("[%s] %s\n", msg.Role, msg.Content)
		for _, src := range msg.Sources {
			cmd.Printf("    source: %s (%s)\n", src.SourceFile, src.DocType)
		}
		cmd.Println()
	}
	return nil
}
