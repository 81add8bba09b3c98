package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

var (
	statsCase string
	statsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsCase, "case", "c", "", "restrict stats to one case")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

type statsJSONOutput struct {
	CaseID              string `json:"case_id,omitempty"`
	TotalChunks         int    `json:"total_chunks"`
	EmbeddingModel      string `json:"embedding_model"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	r, err := activeRuntime("indexing service")
	if err != nil {
		return err
	}
	if r.Indexing == nil {
		return fmt.Errorf("indexing service not configured")
	}

	var caseID *domain.CaseID
	if statsCase != "" {
		id, err := domain.ParseCaseID(statsCase)
		if err != nil {
			return err
		}
		caseID = &id
	}

	stats, err := r.Indexing.GetIndexStats(cmd.Context(), caseID)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if statsJSON {
		out := statsJSONOutput{
			TotalChunks:         stats.TotalChunks,
			EmbeddingModel:      stats.EmbeddingModel,
			EmbeddingDimensions: stats.EmbeddingDimensions,
		}
		if caseID != nil {
			out.CaseID = caseID.String()
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	scope := "all cases"
	if caseID != nil {
		scope = "case " + caseID.String()
	}
	cmd.Println(heading("Index (" + scope + ")"))
	cmd.Printf("  Chunks:     %s\n", bold(stats.TotalChunks))
	model := stats.EmbeddingModel
	if model == "" {
		model = "(none)"
	}
	cmd.Printf("  Model:      %s\n", model)
	cmd.Printf("  Dimensions: %d\n", stats.EmbeddingDimensions)

	if r.Reconciler != nil {
		status := r.Reconciler.Status()
		cmd.Println()
		cmd.Println(heading("Reconciler"))
		cmd.Printf("  Last run:   %s\n", formatTime(status.LastRun))
		if !status.LastRun.IsZero() {
			cmd.Printf("  Last stats: %s\n", formatStats(status.LastStats))
		}
		if status.LastError != "" {
			cmd.Printf("  Last error: %s\n", red(status.LastError))
		}
	}
	return nil
}
