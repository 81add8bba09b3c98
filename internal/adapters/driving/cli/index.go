package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index [case-id] [file...]",
	Short: "Upload files to a case and index them",
	Long: `Extracts each file, records it as an uploaded document of the case and
indexes its text. Files without usable content are recorded but not indexed.
A failing file does not stop the others.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	r, err := activeRuntime("document service")
	if err != nil {
		return err
	}
	if r.Documents == nil {
		return fmt.Errorf("document service not configured")
	}

	caseID, err := domain.ParseCaseID(args[0])
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range args[1:] {
		doc, result, err := r.Documents.Upload(cmd.Context(), caseID, path)
		if err != nil {
			failed++
			cmd.Printf("  %s %s: %v\n", red("✗"), path, err)
			continue
		}

		switch {
		case result == nil:
			cmd.Printf("  %s %s: no usable content (%s)\n", yellow("-"), doc.Filename, doc.ID)
		case result.ChunksCreated == 0:
			cmd.Printf("  %s %s: stored, not indexed (%s)\n", yellow("!"), doc.Filename, doc.ID)
		default:
			cmd.Printf("  %s %s: %d chunks (%s)\n", green("✓"), doc.Filename, result.ChunksCreated, doc.ID)
		}
	}

	if failed > 0 {
		return errors.New(pluralise(failed, "file", "files") + " failed")
	}
	return nil
}

func pluralise(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
