// Package cli provides the ragdesk command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

var (
	version = "dev"

	verbose   bool
	configDir string
)

// Services used by commands. Bootstrap fills them on first use; tests set
// them directly.
var (
	settingsService driving.SettingsService
	pipelineService driving.PipelineService
	sessionService  driving.SessionService
	compareService  driving.CompareService
)

// active holds what Bootstrap built so Execute can release it.
var active *Runtime

// errServiceNotConfigured is returned when a command runs without its service.
var errServiceNotConfigured = errors.New("service not configured")

var rootCmd = &cobra.Command{
	Use:   "ragdesk",
	Short: "Ask questions about your PDF documents",
	Long: `ragdesk answers questions about a folder of PDF documents.

It extracts text from the PDFs, splits it into overlapping chunks, embeds
them, and answers questions with a language model grounded on the most
similar chunks. Answers cite the source file and page they came from.

Get started:
  ragdesk settings set llm.provider openai
  ragdesk ingest
  ragdesk ask "졸업에 필요한 학점은?"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline progress")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.ragdesk)")
}

// SetVersion sets the version reported by `ragdesk version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases anything Bootstrap opened.
func Execute(ctx context.Context) error {
	defer func() {
		if active != nil {
			if err := active.Close(); err != nil {
				logger.Warn("shutdown: %v", err)
			}
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// ensureSettings makes settingsService available.
func ensureSettings() error {
	if settingsService != nil {
		return nil
	}
	svc, dir, err := NewSettings(configDir)
	if err != nil {
		return err
	}
	settingsService = svc
	settingsDir = dir
	return nil
}

// ensurePipeline makes the pipeline services available. needGenerator is
// false for commands that only ingest.
func ensurePipeline(cmd *cobra.Command, needGenerator bool) error {
	if pipelineService != nil {
		return nil
	}
	rt, err := Bootstrap(cmd.Context(), BootstrapOptions{
		ConfigDir:        configDir,
		RequireGenerator: needGenerator,
		Prompt:           terminalPrompt(cmd),
	})
	if err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	active = rt
	settingsService = rt.Settings
	settingsDir = rt.ConfigDir
	pipelineService = rt.Pipeline
	sessionService = rt.Sessions
	compareService = rt.Compare
	return nil
}
