package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quern-dev/quern/internal/core/domain"
)

var (
	retrieveK    int
	retrieveJSON bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve relevant chunks without generating an answer",
	Long: `Embeds the query and prints the most similar indexed chunks, best match
first. Useful for inspecting what the ask command would be grounded on.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVar(&retrieveK, "k", 0, "number of chunks to retrieve (0 = configured default)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrieveService == nil {
		return errors.New("retrieve service not configured")
	}

	result, err := retrieveService.Retrieve(cmd.Context(), query, retrieveK)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		data, err := json.MarshalIndent(result.Chunks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputRetrievalTable(cmd, result)
}

func outputRetrievalTable(cmd *cobra.Command, result domain.RetrievalResult) error {
	if result.Empty() {
		cmd.Println("No relevant chunks found.")
		return nil
	}

	for i, sc := range result.Chunks {
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, shortID(sc.Chunk.ID), sc.Similarity)
		cmd.Printf("      Source: %s (%s)\n", sc.SourceLabel, sc.Provenance)
		cmd.Printf("      %s\n", snippet(sc.Chunk.Content, 160))
		cmd.Println()
	}

	return nil
}

// snippet flattens whitespace and truncates for single-line display.
func snippet(text string, maxLen int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) <= maxLen {
		return flat
	}
	return flat[:maxLen] + "..."
}
