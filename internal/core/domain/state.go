package domain

// PipelineState is the orchestrator lifecycle state.
type PipelineState string

// Pipeline states. Empty -> Ingesting -> Ready -> Querying -> Ready, and
// Ready -> Ingesting on re-ingest.
const (
	StateEmpty     PipelineState = "empty"
	StateIngesting PipelineState = "ingesting"
	StateReady     PipelineState = "ready"
	StateQuerying  PipelineState = "querying"
)

// String returns the string representation.
func (s PipelineState) String() string {
	return string(s)
}

// IngestPolicy selects which documents an ingestion uses.
type IngestPolicy string

// Ingest policies.
const (
	// PolicyMerge ingests the default corpus plus any uploads.
	PolicyMerge IngestPolicy = "merge"

	// PolicyUploadsOnly ingests only the uploads.
	PolicyUploadsOnly IngestPolicy = "uploads_only"
)

// IsValid returns true if the policy is recognised.
func (p IngestPolicy) IsValid() bool {
	return p == PolicyMerge || p == PolicyUploadsOnly
}

// Upload is an in-memory PDF supplied by a user.
type Upload struct {
	Name string
	Data []byte
}

// IngestRequest describes one ingestion.
type IngestRequest struct {
	Uploads []Upload
	Policy  IngestPolicy
}

// IngestReport summarises a completed ingestion.
type IngestReport struct {
	Documents int          `json:"documents"`
	Pages     int          `json:"pages"`
	Chunks    int          `json:"chunks"`
	Policy    IngestPolicy `json:"policy"`
	Persisted bool         `json:"persisted"`
}
