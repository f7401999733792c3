package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quern-dev/quern/internal/core/domain"
)

var ingestLabel string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]...",
	Short: "Ingest documents into the knowledge base",
	Long: `Reads the given files, splits them into chunks, embeds each chunk and
writes the result to the local index. Each file becomes one document.

The source label defaults to the file path and can be overridden with
--label (applied to every file in the invocation).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestLabel, "label", "l", "", "source label for the ingested documents")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	failures := 0

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("read %s: %v\n", path, err)
			failures++
			continue
		}

		label := ingestLabel
		if label == "" {
			label = filepath.Clean(path)
		}

		id, err := ingestService.IngestText(ctx, string(data), label)
		if err != nil {
			var ingErr *domain.IngestionError
			if errors.As(err, &ingErr) {
				cmd.PrintErrf("ingest %s: %d/%d chunks written: %v\n",
					path, ingErr.ChunksWritten, ingErr.ChunksTotal, err)
			} else {
				cmd.PrintErrf("ingest %s: %v\n", path, err)
			}
			failures++
			continue
		}

		cmd.Printf("%s  %s\n", id, label)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d files failed", failures, len(args))
	}
	return nil
}
