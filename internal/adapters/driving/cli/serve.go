package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/http"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/watch"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the question answering API over HTTP.

Routes (under /api/v1):
  GET    /status                 pipeline state and index size
  POST   /ingest                 re-ingest, optionally with uploaded PDFs
  POST   /retrieve               top-k chunks for a question
  POST   /sessions               start a conversation
  GET    /sessions/:id           conversation history
  DELETE /sessions/:id           reset a conversation
  POST   /sessions/:id/ask       ask within a conversation
  POST   /compare                grounded answer vs direct answer

Use --watch to re-ingest when PDFs in the corpus directory change.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "re-ingest when the corpus directory changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := ensurePipeline(cmd, true); err != nil {
		return err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := ensureIndex(cmd); err != nil && !errors.Is(err, domain.ErrEmptyIndex) {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = settings.ServerAddr
	}

	router, err := http.NewRouter(&http.Ports{
		Pipeline: pipelineService,
		Sessions: sessionService,
		Compare:  compareService,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	if serveWatch {
		w, err := watch.New(pipelineService, settings.CorpusDir,
			watch.WithIngestHook(func(r domain.IngestReport, err error) {
				if err != nil {
					logger.Warn("re-ingest failed: %v", err)
					return
				}
				cmd.PrintErrf("Re-indexed %d documents into %d chunks.\n", r.Documents, r.Chunks)
			}))
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(ctx) })
	}
	g.Go(func() error {
		cmd.PrintErrf("Listening on %s\n", addr)
		return http.Serve(ctx, addr, router)
	})
	return g.Wait()
}
