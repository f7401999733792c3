package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var teachCmd = &cobra.Command{
	Use:   "teach [question] [answer]",
	Short: "Teach a validated answer back into the knowledge base",
	Long: `Stores a question together with its validated answer as a feedback
document and indexes it, so the pair is retrievable by future queries.

Use this when an answer has been checked by a human and should shape
what the system says next time.`,
	Args: cobra.ExactArgs(2),
	RunE: runTeach,
}

func init() {
	rootCmd.AddCommand(teachCmd)
}

func runTeach(cmd *cobra.Command, args []string) error {
	question, answer := args[0], args[1]

	if feedbackService == nil {
		return errors.New("feedback service not configured")
	}

	id, err := feedbackService.Record(cmd.Context(), question, answer)
	if err != nil {
		return fmt.Errorf("teach failed: %w", err)
	}

	cmd.Printf("Recorded feedback document %s\n", id)
	return nil
}
