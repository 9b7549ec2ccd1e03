package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jchantrell/assetzip/internal/config"
	"github.com/jchantrell/assetzip/pkg/assetio"
	"github.com/jchantrell/assetzip/pkg/bundle"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	bundleCfg bundle.Config
	cfgFile   string

	fileName    string
	compression string
	obfuscate   bool
	outDir      string
	searchDir   string
	assetsDir   string
	logLevel    string
	logFormat   string
	noProgress  bool
)

var rootCmd = &cobra.Command{
	Use:   "assetzip",
	Short: "Pack game assets into a zip bundle and serve them back",
	Long: `assetzip packs an asset directory into a single zip bundle and reads assets
back through a resolver that prefers the bundle and falls back to the loose
files on disk.

A bundle named {file-name}.bin is an obfuscated zip and wins over a plain
{file-name}.zip in the same directory. Settings are read from
asset_config.toml in the working directory when present.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("file-name") {
			cfg.FileName = fileName
		}
		if cmd.Flags().Changed("obfuscate") {
			cfg.Obfuscate = obfuscate
		}
		if cmd.Flags().Changed("out-dir") {
			cfg.OutDir = outDir
		}

		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if logFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		logger := slog.New(handler)
		slog.SetDefault(logger)

		if !cmd.Flags().Changed("search-dir") {
			searchDir, err = bundle.ExecutableDir()
			if err != nil {
				return err
			}
		}

		bundleCfg = cfg.Bundle(searchDir)
		if cmd.Flags().Changed("compression") {
			bundleCfg.Compression, err = bundle.ParseCompression(compression)
			if err != nil {
				return err
			}
		}
		if err := bundleCfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		slog.Debug("Configuration",
			"file_name", bundleCfg.BaseName,
			"compression", bundleCfg.Compression,
			"obfuscate", bundleCfg.Obfuscate,
			"bundle_for_debug_builds", cfg.BundleForDebugBuilds,
			"out_dir", bundleCfg.OutDir,
			"search_dir", bundleCfg.SearchDir,
			"assets", assetsDir)

		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newResolver installs a resolver over a directory source rooted at --assets.
func newResolver() (*assetio.Resolver, *assetio.DirSource, error) {
	var dir *assetio.DirSource
	resolver, err := assetio.Install(func() (assetio.Source, error) {
		var err error
		dir, err = assetio.NewDirSource(assetsDir)
		return dir, err
	}, bundleCfg)
	if err != nil {
		return nil, nil, err
	}
	return resolver, dir, nil
}

// progressEnabled reports whether progress bars should be drawn. They are
// hidden when structured or debug logs would interleave with them.
func progressEnabled() bool {
	return !(noProgress || logFormat == "json" || logLevel == "debug")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.FileName+" in pwd)")
	rootCmd.PersistentFlags().StringVar(&fileName, "file-name", "", "bundle file name without extension")
	rootCmd.PersistentFlags().StringVar(&compression, "compression", "", "entry compression (none, deflate, bzip2)")
	rootCmd.PersistentFlags().BoolVar(&obfuscate, "obfuscate", false, "write and expect an obfuscated .bin bundle")
	rootCmd.PersistentFlags().StringVar(&outDir, "out-dir", "", "directory the bundle is written to")
	rootCmd.PersistentFlags().StringVar(&searchDir, "search-dir", "", "directory searched for a bundle (default is the executable's directory)")
	rootCmd.PersistentFlags().StringVarP(&assetsDir, "assets", "a", "assets", "loose asset directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
