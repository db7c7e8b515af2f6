package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// DocumentLoader reads PDF content into page records.
type DocumentLoader interface {
	// LoadPath reads a PDF file, or every PDF in a directory, as corpus pages.
	// Missing paths wrap domain.ErrNotFound; unreadable PDFs wrap domain.ErrParse.
	LoadPath(ctx context.Context, path string) ([]domain.Page, error)

	// LoadUpload reads an in-memory PDF as upload pages.
	LoadUpload(ctx context.Context, name string, data []byte) ([]domain.Page, error)
}
