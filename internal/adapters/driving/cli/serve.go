package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/casesync/internal/adapters/driven/lock"
	"github.com/custodia-labs/casesync/internal/adapters/driven/watch"
	"github.com/custodia-labs/casesync/internal/adapters/driving/mcp"
	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/logger"
)

var (
	servePort     int
	serveNoMCP    bool
	serveNoWatch  bool
	serveDebounce time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run background reconciliation and the MCP server",
	Long: `Runs the reconciliation loop, the index worker and the file watcher, and
serves the Model Context Protocol for AI assistants.

By default, MCP is spoken over stdio using JSON-RPC. Use --port to serve HTTP
instead, for the MCP Inspector or remote access. With --no-mcp only the
background work runs, until interrupted.

Only one serve may run per data directory.

Examples:
  # Stdio mode (for Claude Desktop)
  casesync serve

  # HTTP mode
  casesync serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "casesync": {
        "command": "/path/to/casesync",
        "args": ["serve"]
      }
    }
  }`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationBackground: "true"},
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (0 = use stdio)")
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "run background work only")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "rely on the reconcile interval only")
	serveCmd.Flags().DurationVar(&serveDebounce, "debounce", watch.DefaultDebounce, "quiet period before file changes trigger a pass")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	r, err := activeRuntime("runtime")
	if err != nil {
		return err
	}
	if r.Scheduler == nil {
		return errors.New("scheduler not configured")
	}

	if !r.Ephemeral && r.DataDir != "" {
		instance, err := lock.Acquire(r.DataDir)
		if err != nil {
			return err
		}
		defer instance.Release()
	}

	var server *mcp.Server
	if !serveNoMCP {
		server, err = mcp.NewServer(&mcp.Ports{
			Indexing:   r.Indexing,
			Reconciler: r.Reconciler,
			Links:      r.Links,
			Documents:  r.Documents,
		})
		if err != nil {
			return err
		}
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if r.Queue != nil {
		g.Go(func() error {
			return ignoreCanceled(r.Queue.Run(gctx))
		})
	}

	if !serveNoWatch && r.Sources != nil {
		nudger, err := watch.New(r.Sources, r.Scheduler, watch.WithDebounce(serveDebounce))
		if err != nil {
			return err
		}
		if err := nudger.Refresh(ctx); err != nil {
			logger.Warn("serve: watching linked directories: %v", err)
		}
		// New links and removed directories are picked up after each pass.
		r.Scheduler.OnTick(func(ctx context.Context, _ domain.TaskResult) {
			if err := nudger.Refresh(ctx); err != nil {
				logger.Warn("serve: refreshing watches: %v", err)
			}
		})
		g.Go(func() error {
			return ignoreCanceled(nudger.Run(gctx))
		})
	}

	g.Go(func() error {
		return ignoreCanceled(r.Scheduler.Start(gctx))
	})

	if server != nil {
		g.Go(func() error {
			// The session ending stops the background work too.
			defer cancel()
			if servePort > 0 {
				addr := fmt.Sprintf(":%d", servePort)
				cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
				return ignoreCanceled(server.RunHTTP(gctx, addr))
			}
			return ignoreCanceled(server.Run(gctx))
		})
	} else {
		cmd.PrintErrln("Background reconciliation running. Press Ctrl+C to stop.")
	}

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
