package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/casesync/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync [link-id]",
	Short: "Reconcile linked directories now",
	Long: `Runs one reconciliation pass immediately.
If a link ID is provided, only that directory is reconciled.
Otherwise, every linked directory is reconciled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	r, err := activeRuntime("reconciler")
	if err != nil {
		return err
	}
	if r.Reconciler == nil {
		return fmt.Errorf("reconciler not configured")
	}

	ctx := cmd.Context()
	start := time.Now()

	var stats domain.ReconcileStats
	if len(args) > 0 {
		linkID, err := domain.ParseLinkID(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Reconciling %s...\n", linkID)
		stats, err = r.Reconciler.ReconcileSource(ctx, linkID)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
	} else {
		cmd.Println("Reconciling all linked directories...")
		stats, err = r.Reconciler.ReconcileAll(ctx)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
	}

	cmd.Printf("Done in %s: %s\n", time.Since(start).Round(time.Millisecond), formatStats(stats))
	if stats.Errors > 0 {
		cmd.Println(yellow("Some files could not be processed; they will be retried on the next pass. Run with --verbose for details."))
	}
	return nil
}
