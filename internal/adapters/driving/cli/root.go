// Package cli implements the casesync command line with cobra.
//
// Commands run against a Runtime: the wired services for one process. The
// entry point installs a Builder that constructs it; tests install a Runtime
// of mocks directly with SetRuntime.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/casesync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
	"github.com/custodia-labs/casesync/internal/core/ports/driving"
	"github.com/custodia-labs/casesync/internal/core/services"
	"github.com/custodia-labs/casesync/internal/logger"
)

// Command annotations controlling how the runtime is built.
const (
	annotationSkipRuntime = "casesync/skip-runtime"
	annotationBackground  = "casesync/background"
)

// EnvDataDir overrides the default data directory.
const EnvDataDir = "CASESYNC_HOME"

var version = "dev"

var (
	verbose   bool
	logLevel  string
	dataDir   string
	ephemeral bool
	noColor   bool
)

// Runtime holds the services a command runs against.
type Runtime struct {
	Settings domain.Settings
	DataDir  string

	// Ephemeral is true when storage lives only in memory.
	Ephemeral bool

	Config     driven.ConfigStore
	Sources    driven.LinkedSourceStore
	Indexing   driving.IndexingPipeline
	Reconciler driving.Reconciler
	Links      driving.LinkService
	Documents  driving.DocumentService

	// Scheduler and Queue are only started by serve.
	Scheduler *services.Scheduler
	Queue     *services.IndexQueue

	// Close releases storage. May be nil.
	Close func() error
}

// Options tell a Builder what kind of runtime a command needs.
type Options struct {
	DataDir   string
	Ephemeral bool

	// Background routes index work through the index queue. Set for
	// long-running commands that also start the queue worker.
	Background bool
}

// Builder constructs a Runtime.
type Builder func(ctx context.Context, opts Options) (*Runtime, error)

var (
	builder Builder
	rt      *Runtime
	ownsRT  bool
)

var rootCmd = &cobra.Command{
	Use:   "casesync",
	Short: "Mirror case directories into a semantic index",
	Long: `casesync keeps linked directories and uploaded files in sync with a
per-case semantic index. Documents are chunked, embedded and stored locally so
they can be searched by meaning from the command line or over MCP.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupRuntime,
	PersistentPostRunE: teardownRuntime,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.casesync)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep all data in memory")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command. A runtime built for the command is closed
// even when the command fails.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	err := rootCmd.Execute()
	if cerr := teardownRuntime(rootCmd, nil); err == nil {
		err = cerr
	}
	return err
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBuilder installs the function that wires the runtime.
func SetBuilder(b Builder) {
	builder = b
}

// SetRuntime installs a prebuilt runtime. Commands will not build or close it.
func SetRuntime(r *Runtime) {
	rt = r
	ownsRT = false
}

func setupRuntime(cmd *cobra.Command, _ []string) error {
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetVerbose(verbose)
	if logLevel != "" {
		logger.SetLevel(logger.ParseLevel(logLevel))
	}
	if noColor {
		color.NoColor = true
	}

	if rt != nil || annotated(cmd, annotationSkipRuntime) {
		return nil
	}
	if builder == nil {
		return errors.New("runtime not configured")
	}

	dir, err := resolveDataDir()
	if err != nil {
		return err
	}

	r, err := builder(cmd.Context(), Options{
		DataDir:    dir,
		Ephemeral:  ephemeral,
		Background: annotated(cmd, annotationBackground),
	})
	if err != nil {
		return err
	}
	rt = r
	ownsRT = true
	return nil
}

func teardownRuntime(_ *cobra.Command, _ []string) error {
	if !ownsRT || rt == nil {
		return nil
	}
	r := rt
	rt = nil
	ownsRT = false
	if r.Close != nil {
		return r.Close()
	}
	return nil
}

// annotated reports whether cmd or one of its parents carries the annotation.
func annotated(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[key] == "true" {
			return true
		}
	}
	return false
}

// resolveDataDir picks the data directory from the flag, the environment
// or the default location, in that order.
func resolveDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return env, nil
	}
	dir, err := file.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("resolving data directory: %w", err)
	}
	return dir, nil
}

// activeRuntime returns the runtime or an error naming what is missing.
func activeRuntime(what string) (*Runtime, error) {
	if rt == nil {
		return nil, fmt.Errorf("%s not configured", what)
	}
	return rt, nil
}
