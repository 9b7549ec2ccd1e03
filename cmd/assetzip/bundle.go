package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jchantrell/assetzip/internal/utils"
	"github.com/jchantrell/assetzip/pkg/bundler"
	"github.com/spf13/cobra"
)

var (
	release bool
	exclude []string
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Pack the asset directory into a bundle",
	Long: `Bundle walks the asset directory and writes every file and directory into
{out-dir}/{file-name}.zip, or {file-name}.bin when obfuscate is set.

Bundling only runs for release builds unless bundle-for-debug-builds is set
in the configuration. Pass --release to mark the build as a release build.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.ShouldBundle(release) {
			slog.Info("Skipping bundling for debug build", "hint", "pass --release or set bundle-for-debug-builds")
			return nil
		}

		patterns := append(append([]string{}, cfg.Exclude...), exclude...)
		opts, err := bundler.FromConfig(bundleCfg, assetsDir, patterns)
		if err != nil {
			return fmt.Errorf("preparing bundle: %w", err)
		}

		var progress *utils.Progress
		opts.OnEntryDone = func(current int, total int, description string) {
			if progress == nil {
				progress = utils.NewProgress("bundling", total, progressEnabled())
			}
			progress.Update(current, description)
		}

		result, err := bundler.Bundle(cmd.Context(), opts)
		if progress != nil {
			progress.Finish()
		}
		if err != nil {
			return fmt.Errorf("bundling assets: %w", err)
		}

		fmt.Printf("Bundle: %s\n", result.Target)
		fmt.Printf("Files: %s\n", utils.Number(int64(result.Files)))
		fmt.Printf("Directories: %s\n", utils.Number(int64(result.Dirs)))
		fmt.Printf("Skipped: %s\n", utils.Number(int64(result.Skipped)))
		fmt.Printf("Asset size: %s\n", utils.Bytes(result.RawBytes))
		fmt.Printf("Bundle size: %s (%s)\n", utils.Bytes(result.WrittenBytes), utils.Ratio(result.WrittenBytes, result.RawBytes))
		fmt.Printf("BLAKE3: %x\n", result.Digest)
		fmt.Printf("Duration: %s\n", utils.Duration(result.Duration.Round(time.Millisecond)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(bundleCmd)
	bundleCmd.Flags().BoolVar(&release, "release", false, "treat this as a release build")
	bundleCmd.Flags().StringSliceVar(&exclude, "exclude", []string{}, "comma-separated glob patterns to leave out, added to the configured ones")
}
