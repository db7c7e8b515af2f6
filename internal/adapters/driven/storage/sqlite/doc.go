// Package sqlite persists vector indexes in a single SQLite file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Layout
//
// The index lives at <dir>/index.db. Each save builds a complete new database
// beside it and renames it into place, so a concurrent Load sees either the
// old index or the new one, never a mixture.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Embeddings are stored as little-endian float32 BLOBs.
package sqlite
