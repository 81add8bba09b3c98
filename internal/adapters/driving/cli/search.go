package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

var (
	searchCase          string
	searchTopK          int
	searchMinSimilarity float64
	searchJSON          bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents by meaning",
	Long: `Embeds the query and returns the most similar chunks by cosine similarity.
Results can be scoped to one case. An empty result means nothing relevant was
found; an error means the search itself failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCase, "case", "c", "", "restrict results to one case")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().Float64Var(&searchMinSimilarity, "min-similarity", 0, "similarity threshold between -1 and 1 (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	r, err := activeRuntime("indexing service")
	if err != nil {
		return err
	}
	if r.Indexing == nil {
		return fmt.Errorf("indexing service not configured")
	}

	opts := domain.SearchOptions{TopK: searchTopK}
	if searchCase != "" {
		caseID, err := domain.ParseCaseID(searchCase)
		if err != nil {
			return err
		}
		opts.CaseID = &caseID
	}
	if cmd.Flags().Changed("min-similarity") {
		v := searchMinSimilarity
		opts.MinSimilarity = &v
	}

	hits, err := r.Indexing.SearchSimilar(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

type searchHitJSON struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float64 `json:"similarity"`
	WordCount  int     `json:"word_count"`
	Text       string  `json:"text"`
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.SearchHit) error {
	out := make([]searchHitJSON, len(hits))
	for i := range hits {
		out[i] = searchHitJSON{
			DocumentID: hits[i].DocumentID.String(),
			ChunkIndex: hits[i].ChunkIndex,
			Similarity: hits[i].SimilarityScore,
			WordCount:  hits[i].WordCount,
			Text:       hits[i].ChunkText,
		}
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func outputSearchTable(cmd *cobra.Command, hits []domain.SearchHit) error {
	if len(hits) == 0 {
		cmd.Println("0 relevant chunks found.")
		return nil
	}

	cmd.Println(heading("Results:"))
	cmd.Println()
	for i := range hits {
		// [N] document #chunk (score)
		cmd.Printf("  [%d] %s #%d (%s)\n",
			i+1, bold(hits[i].DocumentID), hits[i].ChunkIndex,
			green(fmt.Sprintf("%.3f", hits[i].SimilarityScore)))
		snippet := strings.Join(strings.Fields(hits[i].ChunkText), " ")
		cmd.Printf("      %s\n", truncate(snippet, 160))
		cmd.Println()
	}
	return nil
}
