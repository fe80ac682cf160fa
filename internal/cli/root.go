// Package cli provides the command-line interface for storyshelf.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/storyshelf/internal/config"
	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/metrics"
	"github.com/raphaelgruber/storyshelf/internal/service"
	"github.com/raphaelgruber/storyshelf/internal/storage"
	"github.com/raphaelgruber/storyshelf/internal/taggraph"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Shared state initialized by the persistent pre-run
	cfg        config.Config
	store      *storage.Store
	collector  *metrics.Collector
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "storyshelf",
	Short: "Tag-graph library for online story collections",
	Long: `Storyshelf fetches story listings from configured sources, scores
them with a language model and projects everything into an in-memory
tag graph. Boolean search expressions over that graph find books by
author, topic, difficulty, maturity or your own custom tags.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		logCleanup = cleanup
		slog.SetDefault(logger)

		store = storage.New(cfg.DataDir, logger)
		collector = metrics.NewCollector()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// loadLibrary builds the in-memory library from the stored records of
// every configured source.
func loadLibrary(ctx context.Context) (*library.Library, *service.SearchService, error) {
	sources, err := loadSources()
	if err != nil {
		return nil, nil, err
	}

	logger := slog.Default()
	lib := library.New(taggraph.New(logger), logger)
	loader := service.NewLoadService(store, 4, logger)
	result, err := loader.Load(ctx, lib, sources.Descriptors())
	if err != nil {
		return nil, nil, fmt.Errorf("load library: %w", err)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}

	search := service.NewSearchService(lib, store, collector, logger)
	search.Engine().MaxTags = cfg.MaxTags
	search.Engine().MaxBooksPerTag = cfg.MaxBooksPerTag

	for _, err := range search.ReplayTags() {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return lib, search, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sourcesCmd)
}
