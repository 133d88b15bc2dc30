package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fbref-scraper/cache"
	"fbref-scraper/config"
	"fbref-scraper/fetcher"
	"fbref-scraper/filter"
	"fbref-scraper/scraper"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "fbref-scraper",
	Short: "fbref-scraper merges every FBref match log category of a team season into one CSV.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initSlog(verbose)
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

// openCache builds the page cache selected in cfg. The returned close
// function must be called once the pipeline is done.
func openCache(cfg config.CacheConfig) (cache.Cache, func(), error) {
	switch cfg.Kind {
	case "memory":
		return cache.NewMemory(cfg.Size, cfg.TTL), func() {}, nil
	case "disk":
		disk, err := cache.OpenDisk(cfg.Dir, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		return disk, func() {
			if err := disk.Close(); err != nil {
				slog.Warn("failed to close cache", "dir", cfg.Dir, "err", err)
			}
		}, nil
	}
	return nil, func() {}, nil
}

// newPipeline wires the fetcher, cache and column filter described by cfg
func newPipeline(cfg *config.Config) (*scraper.Pipeline, func(), error) {
	pages, closeCache, err := openCache(cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}

	f, err := fetcher.New(cfg.Fetcher, pages)
	if err != nil {
		closeCache()
		return nil, nil, err
	}

	columns, err := filter.NewFilter(cfg.Filters)
	if err != nil {
		closeCache()
		return nil, nil, err
	}

	return scraper.NewPipeline(f, columns, cfg.Categories), closeCache, nil
}
