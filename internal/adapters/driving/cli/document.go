package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quern-dev/quern/internal/core/domain"
)

var (
	documentsJSON       bool
	documentShowChunks  bool
	documentShowContent bool
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage indexed documents",
	Long:    `List, inspect, or delete documents in the knowledge base.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document, its chunks and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

func init() {
	documentsListCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentsShowCmd.Flags().BoolVar(&documentShowChunks, "chunks", false, "list the document's chunks")
	documentsShowCmd.Flags().BoolVar(&documentShowContent, "content", false, "print the full document content")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s  %-10s  %s\n", docs[i].ID, docs[i].Provenance, docs[i].SourceLabel)
	}
	cmd.Printf("\n%d document(s)\n", len(docs))
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id := args[0]
	ctx := cmd.Context()

	doc, err := documentService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document not found: %s", id)
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("ID:         %s\n", doc.ID)
	cmd.Printf("Source:     %s\n", doc.SourceLabel)
	cmd.Printf("Provenance: %s\n", doc.Provenance)
	cmd.Printf("Created:    %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("Length:     %d characters\n", len(doc.Content))

	if documentShowContent {
		cmd.Println()
		cmd.Println(doc.Content)
	}

	if documentShowChunks {
		chunks, err := documentService.Chunks(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get chunks: %w", err)
		}
		cmd.Printf("\nChunks (%d):\n", len(chunks))
		for i := range chunks {
			cmd.Printf("  [%d] %s  [%d:%d]\n", chunks[i].Position, shortID(chunks[i].ID), chunks[i].Start, chunks[i].End)
			cmd.Printf("      %s\n", snippet(chunks[i].Content, 120))
		}
	}

	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id := args[0]
	if err := documentService.Delete(cmd.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document not found: %s", id)
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted %s\n", id)
	return nil
}
