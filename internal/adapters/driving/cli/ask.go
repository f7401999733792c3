package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quern-dev/quern/internal/core/domain"
)

var (
	askK    int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the knowledge base",
	Long: `Retrieves the most relevant chunks for the question and generates an
answer grounded in them. Answers cite the chunks they draw on; when
nothing relevant is indexed the answer is explicitly marked ungrounded.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askK, "k", 0, "number of chunks to retrieve (0 = configured default)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if answerService == nil {
		return errors.New("answer service not configured")
	}

	answer, result, err := answerService.Ask(cmd.Context(), question, askK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer, result)
	}

	return outputAnswerText(cmd, answer, result)
}

func outputAnswerJSON(cmd *cobra.Command, answer domain.GroundedAnswer, result domain.RetrievalResult) error {
	payload := struct {
		Answer    domain.GroundedAnswer `json:"answer"`
		Retrieved []domain.ScoredChunk  `json:"retrieved"`
	}{
		Answer:    answer,
		Retrieved: result.Chunks,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer domain.GroundedAnswer, result domain.RetrievalResult) error {
	cmd.Println(answer.Text)

	if !answer.Grounded {
		cmd.Println()
		cmd.Println("(ungrounded: no relevant passages were found)")
		return nil
	}

	if len(answer.CitedChunkIDs) > 0 {
		cmd.Println()
		cmd.Println("Citations:")
		for _, id := range answer.CitedChunkIDs {
			label := ""
			for i := range result.Chunks {
				if result.Chunks[i].Chunk.ID == id {
					label = result.Chunks[i].SourceLabel
					break
				}
			}
			if label != "" {
				cmd.Printf("  [%s] %s\n", shortID(id), label)
			} else {
				cmd.Printf("  [%s]\n", shortID(id))
			}
		}
	}

	return nil
}

// shortID trims a UUID to its first group for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
