package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the knowledge base"`
	K        int    `json:"k,omitempty" jsonschema:"number of context chunks to retrieve (default from settings)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string          `json:"answer"`
	Grounded  bool            `json:"grounded"`
	Citations []CitationEntry `json:"citations,omitempty"`
}

// CitationEntry identifies a context chunk the answer draws on.
type CitationEntry struct {
	ChunkID     string  `json:"chunk_id"`
	SourceLabel string  `json:"source_label,omitempty"`
	Similarity  float64 `json:"similarity,omitempty"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Text        string `json:"text" jsonschema:"the document text to ingest"`
	SourceLabel string `json:"source_label,omitempty" jsonschema:"human-readable origin label for the document"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
}

// TeachInput is the input schema for the teach tool.
type TeachInput struct {
	Question string `json:"question" jsonschema:"the original question"`
	Answer   string `json:"answer" jsonschema:"the validated answer to remember"`
}

// TeachOutput is the output schema for the teach tool.
type TeachOutput struct {
	DocumentID string `json:"document_id"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question answered from the indexed documents, with citations",
	}, s.handleAsk)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Add a document to the knowledge base",
		}, s.handleIngest)
	}

	if s.ports.Feedback != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "teach",
			Description: "Store a validated question/answer pair so future queries can retrieve it",
		}, s.handleTeach)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, result, err := s.ports.Answer.Ask(ctx, input.Question, input.K)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:   answer.Text,
		Grounded: answer.Grounded,
	}

	for _, id := range answer.CitedChunkIDs {
		entry := CitationEntry{ChunkID: id}
		for i := range result.Chunks {
			if result.Chunks[i].Chunk.ID == id {
				entry.SourceLabel = result.Chunks[i].SourceLabel
				entry.Similarity = result.Chunks[i].Similarity
				break
			}
		}
		output.Citations = append(output.Citations, entry)
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if input.Text == "" {
		return nil, IngestOutput{}, errors.New("text must not be empty")
	}

	label := input.SourceLabel
	if label == "" {
		label = "mcp"
	}

	id, err := s.ports.Ingest.IngestText(ctx, input.Text, label)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{DocumentID: id}, nil
}

// handleTeach handles the teach tool invocation.
func (s *Server) handleTeach(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TeachInput,
) (*mcp.CallToolResult, TeachOutput, error) {
	id, err := s.ports.Feedback.Record(ctx, input.Question, input.Answer)
	if err != nil {
		return nil, TeachOutput{}, err
	}

	return nil, TeachOutput{DocumentID: id}, nil
}
