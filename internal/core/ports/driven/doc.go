// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentLoader: Reads PDF pages from paths and uploads
//   - Splitter: Splits pages into overlapping chunks
//   - EmbeddingService: Maps text to vectors
//   - VectorIndex / IndexBuilder: Nearest-neighbour search over records
//   - Generator: Produces an answer from an assembled prompt
//
// # Optional Interfaces
//
// These can be nil:
//
//   - IndexStore: Persists the index between runs. Nil keeps it in memory.
//   - SessionStore: Conversation storage for the session service.
//   - PromptStore: User-editable prompt templates. Nil uses built-ins.
//   - Scorer: Answer similarity for evaluation.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, loader, or postprocessor package
package driven
