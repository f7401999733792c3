// Package domain defines the core business entities for Quern.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A unit of ingested knowledge (original or feedback-derived)
//   - Chunk: An overlapping window of document text, the unit of retrieval
//   - RetrievalResult: Ranked chunks produced for a query
//   - GroundedAnswer: Generated text restricted to retrieved context
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
