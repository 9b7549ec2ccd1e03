package main

import (
	"log/slog"
	"unicode/utf8"

	"github.com/jchantrell/assetzip/pkg/bundle"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log changes to the loose asset directory",
	Long: `Watch registers the whole asset directory through the resolver and logs every
change until interrupted. Changes to a path that the current bundle also holds
are flagged, since loads keep serving the bundled copy.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, dir, err := newResolver()
		if err != nil {
			return err
		}
		defer dir.Close()

		if err := resolver.WatchAll(); err != nil {
			return err
		}
		slog.Info("Watching assets", "root", dir.Root())

		ctx := cmd.Context()
		for {
			select {
			case <-ctx.Done():
				slog.Info("Stopped watching")
				return nil
			case path, ok := <-dir.Changes():
				if !ok {
					return nil
				}
				if shadowedByBundle(path) {
					slog.Warn("Asset changed but bundle copy is served", "path", path)
					continue
				}
				slog.Info("Asset changed", "path", path)
			}
		}
	},
}

// shadowedByBundle reports whether the current bundle has an entry for path.
func shadowedByBundle(path string) bool {
	if !utf8.ValidString(path) {
		return false
	}
	candidate, ok := bundle.Locate(bundleCfg.SearchDir, bundleCfg.BaseName)
	if !ok {
		return false
	}
	archive, err := bundle.Open(candidate)
	if err != nil {
		return false
	}
	defer archive.Close()

	_, found := archive.Lookup(bundle.EntryName(path))
	return found
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
