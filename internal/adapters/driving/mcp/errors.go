// Package mcp provides an MCP (Model Context Protocol) server adapter for Quern.
// It enables AI assistants like Claude to query and grow the local knowledge base.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
