package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

var (
	docsJSON     bool
	docsShowText bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage case documents",
	Long:  `List, inspect, reindex or remove the documents of a case.`,
}

var docsListCmd = &cobra.Command{
	Use:   "list [case-id]",
	Short: "List documents of a case",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsList,
}

var docsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsShow,
}

var docsReindexCmd = &cobra.Command{
	Use:   "reindex [doc-id]",
	Short: "Rebuild a document's chunks from its stored text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsReindex,
}

var docsRemoveCmd = &cobra.Command{
	Use:     "rm [doc-id]",
	Aliases: []string{"remove"},
	Short:   "Remove a document and its index",
	Long: `Removes a document and its chunks. A linked document whose file still
exists is picked up again by the next reconciliation pass.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocsRemove,
}

func init() {
	docsListCmd.Flags().BoolVar(&docsJSON, "json", false, "output as JSON")
	docsShowCmd.Flags().BoolVar(&docsShowText, "text", false, "print the extracted text")

	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsShowCmd)
	docsCmd.AddCommand(docsReindexCmd)
	docsCmd.AddCommand(docsRemoveCmd)
	rootCmd.AddCommand(docsCmd)
}

func documentService() (*Runtime, error) {
	r, err := activeRuntime("document service")
	if err != nil {
		return nil, err
	}
	if r.Documents == nil {
		return nil, errors.New("document service not configured")
	}
	return r, nil
}

type documentJSON struct {
	ID         string `json:"id"`
	CaseID     string `json:"case_id"`
	Filename   string `json:"filename"`
	Path       string `json:"path"`
	SourceType string `json:"source_type"`
	LinkID     string `json:"link_id,omitempty"`
	Indexed    bool   `json:"indexed"`
}

func runDocsList(cmd *cobra.Command, args []string) error {
	r, err := documentService()
	if err != nil {
		return err
	}

	caseID, err := domain.ParseCaseID(args[0])
	if err != nil {
		return err
	}

	docs, err := r.Documents.ListByCase(cmd.Context(), caseID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if docsJSON {
		out := make([]documentJSON, len(docs))
		for i := range docs {
			out[i] = documentJSON{
				ID:         docs[i].ID.String(),
				CaseID:     docs[i].CaseID.String(),
				Filename:   docs[i].Filename,
				Path:       docs[i].FilePath,
				SourceType: string(docs[i].SourceType),
				Indexed:    docs[i].Indexed,
			}
			if docs[i].IsLinked() {
				out[i].LinkID = docs[i].Linked.LinkID.String()
			}
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents for case %s.\n", caseID)
		return nil
	}

	cmd.Println(heading(fmt.Sprintf("Documents for case %s:", caseID)))
	cmd.Println()
	for i := range docs {
		state := yellow("not indexed")
		if docs[i].Indexed {
			state = green("indexed")
		}
		cmd.Printf("  %s  %s [%s, %s]\n", cyan(docs[i].ID), bold(docs[i].Filename), docs[i].SourceType, state)
	}
	return nil
}

func runDocsShow(cmd *cobra.Command, args []string) error {
	r, err := documentService()
	if err != nil {
		return err
	}

	id, err := domain.ParseDocumentID(args[0])
	if err != nil {
		return err
	}

	doc, err := r.Documents.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n", bold(doc.ID))
	cmd.Printf("  Case:     %s\n", doc.CaseID)
	cmd.Printf("  Filename: %s\n", doc.Filename)
	cmd.Printf("  Path:     %s\n", doc.FilePath)
	cmd.Printf("  Source:   %s\n", doc.SourceType)
	if doc.IsLinked() {
		cmd.Printf("  Link:     %s\n", doc.Linked.LinkID)
		cmd.Printf("  Relative: %s\n", doc.Linked.RelativePath)
		cmd.Printf("  Hash:     %s\n", doc.Linked.SourceHash)
	}
	cmd.Printf("  Indexed:  %t\n", doc.Indexed)
	cmd.Printf("  Created:  %s\n", formatTime(doc.CreatedAt))
	cmd.Printf("  Updated:  %s\n", formatTime(doc.UpdatedAt))
	if domain.IsPlaceholder(doc.Text()) {
		cmd.Printf("  Content:  %s\n", faint(doc.Text()))
	}

	if docsShowText {
		cmd.Println()
		cmd.Println(doc.Text())
	}
	return nil
}

func runDocsReindex(cmd *cobra.Command, args []string) error {
	r, err := documentService()
	if err != nil {
		return err
	}

	id, err := domain.ParseDocumentID(args[0])
	if err != nil {
		return err
	}

	result, err := r.Documents.Reindex(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	if result.ChunksCreated == 0 {
		cmd.Printf("Document %s was not indexed; check the embedding provider.\n", id)
		return nil
	}
	cmd.Printf("Document %s reindexed: %d chunks\n", id, result.ChunksCreated)
	return nil
}

func runDocsRemove(cmd *cobra.Command, args []string) error {
	r, err := documentService()
	if err != nil {
		return err
	}

	id, err := domain.ParseDocumentID(args[0])
	if err != nil {
		return err
	}

	if err := r.Documents.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Document %s removed.\n", id)
	return nil
}
