package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

var (
	askSources bool
	askJSON    bool
	askSession string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieves the chunks most similar to the question, builds a prompt from
them and asks the configured language model.

When no index has been saved, the corpus is ingested first.
Use --session to continue a conversation started over the HTTP API.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "list the chunks the answer is based on")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().StringVar(&askSession, "session", "", "session id to continue")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensurePipeline(cmd, true); err != nil {
		return err
	}
	if err := ensureIndex(cmd); err != nil {
		return err
	}

	var (
		answer domain.Answer
		err    error
	)
	if askSession != "" {
		if sessionService == nil {
			return fmt.Errorf("sessions: %w", errServiceNotConfigured)
		}
		answer, _, err = sessionService.Ask(cmd.Context(), askSession, args[0])
	} else {
		answer, _, err = pipelineService.Answer(cmd.Context(), domain.Conversation{}, args[0])
	}
	if err != nil {
		return explain(err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if askSources {
		printSources(cmd, answer.Sources)
	}
	return nil
}

// ensureIndex ingests the corpus when the pipeline has no index yet.
func ensureIndex(cmd *cobra.Command) error {
	if pipelineService == nil {
		return fmt.Errorf("pipeline: %w", errServiceNotConfigured)
	}
	if pipelineService.State() != domain.StateEmpty {
		return nil
	}
	logger.Info("no saved index, ingesting the corpus")
	if _, err := pipelineService.Ingest(cmd.Context(), domain.IngestRequest{Policy: domain.PolicyMerge}); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func printSources(cmd *cobra.Command, hits []domain.ScoredChunk) {
	if len(hits) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, h := range hits {
		p := h.Chunk.Provenance
		cmd.Printf("  [%d] %s p.%d (%.2f)\n", i+1, p.Source, p.Page+1, h.Score)
	}
}

// explain adds a next step to errors a user can fix.
func explain(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyIndex):
		return fmt.Errorf("%w: add PDFs to the corpus directory and run `ragdesk ingest`", err)
	case errors.Is(err, domain.ErrNoIndex):
		return fmt.Errorf("%w: run `ragdesk ingest` first", err)
	case errors.Is(err, domain.ErrSessionNotFound):
		return fmt.Errorf("%w: sessions live in the server process or redis", err)
	case errors.Is(err, domain.ErrConfiguration):
		return fmt.Errorf("%w: see `ragdesk settings show`", err)
	default:
		return err
	}
}
