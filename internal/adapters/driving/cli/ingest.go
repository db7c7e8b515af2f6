package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

var (
	ingestUploads     []string
	ingestUploadsOnly bool
	ingestJSON        bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the index from the corpus and uploads",
	Long: `Loads every PDF in the corpus directory (corpus.dir), splits the text into
overlapping chunks, embeds them and replaces the current index.

Extra PDFs can be added with --upload. With --uploads-only the corpus is
skipped and only the uploaded files are indexed.

A failed ingest leaves the previous index untouched.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringArrayVarP(&ingestUploads, "upload", "u", nil, "PDF file to add (repeatable)")
	ingestCmd.Flags().BoolVar(&ingestUploadsOnly, "uploads-only", false, "index only the uploaded files")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	req, err := buildIngestRequest(ingestUploads, ingestUploadsOnly)
	if err != nil {
		return err
	}

	if err := ensurePipeline(cmd, false); err != nil {
		return err
	}

	done := logger.Timed("ingest")
	report, err := pipelineService.Ingest(cmd.Context(), req)
	done()
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Indexed %d documents (%d pages) into %d chunks.\n", report.Documents, report.Pages, report.Chunks)
	if report.Persisted {
		cmd.Println("Index saved.")
	}
	return nil
}

// buildIngestRequest reads the upload files into memory.
func buildIngestRequest(paths []string, uploadsOnly bool) (domain.IngestRequest, error) {
	req := domain.IngestRequest{Policy: domain.PolicyMerge}
	if uploadsOnly {
		req.Policy = domain.PolicyUploadsOnly
		if len(paths) == 0 {
			return req, fmt.Errorf("%w: --uploads-only needs at least one --upload", domain.ErrInvalidInput)
		}
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return req, fmt.Errorf("read upload %s: %w", p, err)
		}
		req.Uploads = append(req.Uploads, domain.Upload{Name: filepath.Base(p), Data: data})
	}
	return req, nil
}
