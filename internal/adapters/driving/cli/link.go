package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

var sourcesJSON bool

var linkCmd = &cobra.Command{
	Use:   "link [case-id] [directory]",
	Short: "Link a directory to a case",
	Long: `Registers a directory under a case and runs the first scan right away.
Supported files below the directory are mirrored as documents of the case and
kept in sync by later reconciliation passes. The files are never copied.`,
	Args: cobra.ExactArgs(2),
	RunE: runLink,
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink [link-id]",
	Short: "Remove a linked directory",
	Long:  `Removes the binding together with its documents and their index. Files on disk are untouched.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUnlink,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List linked directories",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	r, err := activeRuntime("link service")
	if err != nil {
		return err
	}
	if r.Links == nil {
		return fmt.Errorf("link service not configured")
	}

	caseID, err := domain.ParseCaseID(args[0])
	if err != nil {
		return err
	}

	source, stats, err := r.Links.Link(cmd.Context(), caseID, args[1])
	if err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	cmd.Printf("Linked %s to case %s\n", bold(source.BasePath), source.CaseID)
	cmd.Printf("  Link ID: %s\n", cyan(source.LinkID))
	cmd.Printf("  First scan: %s\n", formatStats(stats))
	return nil
}

func runUnlink(cmd *cobra.Command, args []string) error {
	r, err := activeRuntime("link service")
	if err != nil {
		return err
	}
	if r.Links == nil {
		return fmt.Errorf("link service not configured")
	}

	linkID, err := domain.ParseLinkID(args[0])
	if err != nil {
		return err
	}

	if err := r.Links.Unlink(cmd.Context(), linkID); err != nil {
		return fmt.Errorf("unlink failed: %w", err)
	}

	cmd.Printf("Unlinked %s\n", linkID)
	return nil
}

type sourceJSON struct {
	LinkID     string `json:"link_id"`
	CaseID     string `json:"case_id"`
	BasePath   string `json:"base_path"`
	LastSyncAt string `json:"last_sync_at,omitempty"`
}

func runSources(cmd *cobra.Command, _ []string) error {
	r, err := activeRuntime("link service")
	if err != nil {
		return err
	}
	if r.Links == nil {
		return fmt.Errorf("link service not configured")
	}

	sources, err := r.Links.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if sourcesJSON {
		out := make([]sourceJSON, len(sources))
		for i := range sources {
			out[i] = sourceJSON{
				LinkID:   sources[i].LinkID.String(),
				CaseID:   sources[i].CaseID.String(),
				BasePath: sources[i].BasePath,
			}
			if !sources[i].LastSyncAt.IsZero() {
				out[i].LastSyncAt = sources[i].LastSyncAt.UTC().Format(time.RFC3339)
			}
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	if len(sources) == 0 {
		cmd.Println("No linked directories. Use 'casesync link' to add one.")
		return nil
	}

	cmd.Println(heading("Linked directories:"))
	cmd.Println()
	for i := range sources {
		cmd.Printf("  %s  %s\n", cyan(sources[i].LinkID), bold(sources[i].DisplayName()))
		cmd.Printf("      Case: %s\n", sources[i].CaseID)
		cmd.Printf("      Path: %s\n", sources[i].BasePath)
		cmd.Printf("      Last sync: %s\n", formatTime(sources[i].LastSyncAt))
	}
	return nil
}
