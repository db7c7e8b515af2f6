package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var (
	compareJSON      bool
	compareReference string
)

var compareCmd = &cobra.Command{
	Use:   "compare [question] --reference [answer]",
	Short: "Score a grounded answer and the model's direct answer against a reference",
	Long: `Answers the question twice, once with retrieved document chunks and once
without, and scores each answer against the reference answer with
token-level precision, recall and F1 over embedding similarity.

A higher RAG score than direct score means the documents helped.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "output the comparison as JSON")
	compareCmd.Flags().StringVar(&compareReference, "reference", "", "reference answer both answers are scored against (required)")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(compareReference) == "" {
		return fmt.Errorf("%w: --reference is required", domain.ErrInvalidInput)
	}
	if err := ensurePipeline(cmd, true); err != nil {
		return err
	}
	if compareService == nil {
		return fmt.Errorf("compare: %w", errServiceNotConfigured)
	}
	if err := ensureIndex(cmd); err != nil {
		return err
	}

	result, err := compareService.Compare(cmd.Context(), args[0], compareReference)
	if err != nil {
		return explain(err)
	}

	if compareJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal comparison: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("[Reference]")
	cmd.Println(result.Reference)
	cmd.Println()
	cmd.Println("[RAG]")
	cmd.Println(result.RAG.Text)
	printScore(cmd, result.RAGScore)
	cmd.Println()
	cmd.Println("[Direct]")
	cmd.Println(result.Direct)
	printScore(cmd, result.DirectScore)
	return nil
}

func printScore(cmd *cobra.Command, s domain.Score) {
	cmd.Printf("Precision %.4f  Recall %.4f  F1 %.4f\n", s.Precision, s.Recall, s.F1)
}
