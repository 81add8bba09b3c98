package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/casesync/internal/adapters/driven/ai"
	"github.com/custodia-labs/casesync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/casesync/internal/core/domain"
	"github.com/custodia-labs/casesync/internal/core/ports/driven"
)

// validateTimeout bounds the provider round trip of config validate.
const validateTimeout = 10 * time.Second

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change settings stored in config.toml in the data directory.

Keys use dot notation, for example:
  casesync config set embedding.provider openai
  casesync config set indexing.chunk_size_words 300`,
	Annotations: map[string]string{annotationSkipRuntime: "true"},
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Restore a key to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings and reach the embedding provider",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// openConfig returns the runtime's config store, or opens the file store in
// the data directory.
func openConfig() (driven.ConfigStore, error) {
	if rt != nil && rt.Config != nil {
		return rt.Config, nil
	}
	dir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	return store, nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := openConfig()
	if err != nil {
		return err
	}

	settings, err := file.LoadSettings(store)
	if err != nil {
		cmd.Printf("%s %v\n\n", red("Invalid configuration:"), err)
	}

	cmd.Println(heading("[indexing]"))
	ix := settings.Indexing
	printSetting(cmd, store, file.KeyChunkSizeWords, ix.ChunkSizeWords)
	printSetting(cmd, store, file.KeyChunkOverlapWords, ix.ChunkOverlapWords)
	printSetting(cmd, store, file.KeyMaxRetries, ix.MaxRetries)
	printSetting(cmd, store, file.KeyRetryDelaySeconds, ix.RetryDelay.Seconds())
	printSetting(cmd, store, file.KeyMinSimilarity, ix.MinSimilarity)
	printSetting(cmd, store, file.KeyTopK, ix.TopK)
	printSetting(cmd, store, file.KeyRequestsPerSecond, ix.RequestsPerSecond)
	cmd.Println()

	cmd.Println(heading("[reconciler]"))
	printSetting(cmd, store, file.KeyReconcilerEnabled, settings.Reconciler.Enabled)
	printSetting(cmd, store, file.KeyReconcilerInterval, settings.Reconciler.EffectiveInterval().Seconds())
	cmd.Println()

	cmd.Println(heading("[embedding]"))
	em := settings.Embedding
	printSetting(cmd, store, file.KeyEmbeddingProvider, em.Provider)
	printSetting(cmd, store, file.KeyEmbeddingModel, em.Model)
	printSetting(cmd, store, file.KeyEmbeddingBaseURL, valueOr(em.BaseURL, "(provider default)"))
	printSetting(cmd, store, file.KeyEmbeddingAPIKey, maskAPIKey(em.APIKey))
	printSetting(cmd, store, file.KeyEmbeddingDimensions, em.Dimensions)

	status := green("configured")
	if !em.IsConfigured() {
		status = yellow("not configured")
	}
	cmd.Printf("  status = %s\n", status)
	return nil
}

func printSetting(cmd *cobra.Command, store driven.ConfigStore, key string, value any) {
	name := key[strings.Index(key, ".")+1:]
	line := fmt.Sprintf("  %s = %v", name, value)
	if _, ok := store.Get(key); !ok {
		line += faint(" (default)")
	}
	cmd.Println(line)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// maskAPIKey shows only the last four characters of a key.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// parseValue converts a command line value to the TOML type it should be
// stored as.
func parseValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := strings.ToLower(args[0]), args[1]
	if !slices.Contains(file.KnownKeys, key) {
		return fmt.Errorf("%w: unknown key %q (known: %s)", domain.ErrInvalidInput, key, strings.Join(file.KnownKeys, ", "))
	}

	store, err := openConfig()
	if err != nil {
		return err
	}

	value := parseValue(raw)
	if isStringKey(key) {
		value = raw
	}

	previous, existed := store.Get(key)
	if err := store.Set(key, value); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if _, err := file.LoadSettings(store); err != nil {
		// Roll back so a bad value never sticks.
		if existed {
			_ = store.Set(key, previous)
		} else {
			_ = store.Unset(key)
		}
		return err
	}

	if key == file.KeyEmbeddingAPIKey {
		raw = maskAPIKey(raw)
	}
	cmd.Printf("%s = %s\n", key, raw)
	return nil
}

func isStringKey(key string) bool {
	switch key {
	case file.KeyEmbeddingProvider, file.KeyEmbeddingModel, file.KeyEmbeddingBaseURL, file.KeyEmbeddingAPIKey:
		return true
	default:
		return false
	}
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])
	if !slices.Contains(file.KnownKeys, key) {
		return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidInput, key)
	}

	store, err := openConfig()
	if err != nil {
		return err
	}
	if err := store.Unset(key); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	cmd.Printf("%s restored to default\n", key)
	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	store, err := openConfig()
	if err != nil {
		return err
	}

	settings, err := file.LoadSettings(store)
	if err != nil {
		return err
	}
	cmd.Println(green("Settings are valid."))

	if !settings.Embedding.IsConfigured() {
		cmd.Println(yellow("Embedding provider is not configured; documents will be stored but not indexed."))
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), validateTimeout)
	defer cancel()
	if err := ai.ValidateEmbeddingConfig(ctx, &settings.Embedding); err != nil {
		return err
	}

	cmd.Printf("%s %s (%s)\n", green("Embedding provider reachable:"), settings.Embedding.Provider, settings.Embedding.Model)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	store, err := openConfig()
	if err != nil {
		return err
	}
	cmd.Println(store.Path())
	return nil
}
