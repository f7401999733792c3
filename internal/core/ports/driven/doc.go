// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them. The embedding, vector index and generation capabilities
// are opaque collaborators: the core relies only on these contracts and
// never on their internals, so test doubles substitute freely.
//
// # Required Interfaces
//
//   - EmbeddingService: text -> fixed-dimension vector
//   - VectorIndex: persisted insert/delete/query of index entries
//   - DocumentStore: document and chunk persistence
//   - LLMService: prompt -> text generation
//   - ConfigStore: application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
