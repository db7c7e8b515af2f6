// Package domain defines the core entities of the ragdesk pipeline.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Document, Page: Source material produced by a loader
//   - Chunk, VectorRecord: Units of embedding and retrieval
//   - Prompt, Answer: Query-time values
//   - Conversation: Caller-owned chat state
//   - Settings: Pipeline configuration
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
