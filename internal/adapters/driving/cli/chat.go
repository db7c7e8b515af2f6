package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Opens a terminal chat over the indexed documents. The conversation keeps
its history, and ctrl+s shows the chunks behind the last answer.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := ensurePipeline(cmd, true); err != nil {
		return err
	}
	if err := ensureIndex(cmd); err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Sessions: sessionService,
		Pipeline: pipelineService,
	})
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return app.WithContext(cmd.Context()).Run()
}
