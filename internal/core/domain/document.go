package domain

import "time"

// Origin records where a document entered the pipeline.
type Origin string

// Known document origins.
const (
	// OriginCorpus marks documents read from the default corpus directory.
	OriginCorpus Origin = "corpus"

	// OriginUpload marks documents supplied as an upload buffer.
	OriginUpload Origin = "upload"
)

// Document is a loaded source document.
// It is immutable once loaded and discarded after chunking.
type Document struct {
	// ID is a stable identifier derived from the source name.
	ID string

	// Source is the filename or upload handle.
	Source string

	// Origin is corpus or upload.
	Origin Origin

	// PageCount is the number of pages reported by the parser.
	PageCount int
}

// Page is the text of a single PDF page with its provenance.
type Page struct {
	DocumentID string
	Source     string
	Origin     Origin

	// Index is the zero-based page number in document order.
	Index int

	// Content is the extracted plain text. Blank pages keep an empty string.
	Content string
}

// Provenance identifies where a chunk came from, for citation and filtering.
type Provenance struct {
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Origin     Origin `json:"origin"`
	Page       int    `json:"page"`

	// Offset is the rune offset of the chunk within its page.
	Offset int `json:"offset"`
}

// Chunk is a bounded substring of page text. It is the unit of embedding
// and retrieval.
type Chunk struct {
	// ID is deterministic for a given document, page and offset.
	ID string `json:"id"`

	// Content is the chunk text.
	Content string `json:"content"`

	// Position is the ordinal of the chunk within its document.
	Position int `json:"position"`

	Provenance Provenance `json:"provenance"`
}

// VectorRecord pairs a chunk with its embedding. Immutable after insertion.
type VectorRecord struct {
	Chunk     Chunk
	Embedding []float32
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Chunk Chunk `json:"chunk"`

	// Score is the cosine similarity between the query and the chunk.
	Score float64 `json:"score"`
}

// IndexStats describes the current index.
type IndexStats struct {
	Records   int       `json:"records"`
	Documents int       `json:"documents"`
	Sources   []string  `json:"sources"`
	BuiltAt   time.Time `json:"built_at"`
	Persisted bool      `json:"persisted"`
}
