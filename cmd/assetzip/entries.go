package main

import (
	"fmt"

	"github.com/jchantrell/assetzip/internal/utils"
	"github.com/jchantrell/assetzip/pkg/bundle"
	"github.com/spf13/cobra"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List the entries of the current bundle",
	Long: `Entries locates the bundle in the search directory the same way the resolver
does and prints every entry with its compression method and sizes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openBundle()
		if err != nil {
			return err
		}
		defer archive.Close()

		var files int
		var raw, packed int64
		for _, e := range archive.Entries() {
			if e.IsDir {
				fmt.Printf("%-8s %12s %12s  %s\n", "dir", "-", "-", e.Name)
				continue
			}
			fmt.Printf("%-8s %12s %12s  %s\n",
				methodName(e.Method),
				utils.Bytes(int64(e.CompressedSize)),
				utils.Bytes(int64(e.UncompressedSize)),
				e.Name)
			files++
			raw += int64(e.UncompressedSize)
			packed += int64(e.CompressedSize)
		}

		fmt.Printf("\nBundle: %s (obfuscated: %v)\n", archive.Path(), archive.Obfuscated())
		fmt.Printf("Files: %s, %s packed from %s (%s)\n",
			utils.Number(int64(files)), utils.Bytes(packed), utils.Bytes(raw), utils.Ratio(packed, raw))

		return nil
	},
}

// openBundle opens the bundle the resolver would use right now.
func openBundle() (*bundle.Archive, error) {
	candidate, ok := bundle.Locate(bundleCfg.SearchDir, bundleCfg.BaseName)
	if !ok {
		return nil, fmt.Errorf("no %s%s or %s%s bundle in %s",
			bundleCfg.BaseName, bundle.ExtObfuscated, bundleCfg.BaseName, bundle.ExtPlain, bundleCfg.SearchDir)
	}

	archive, err := bundle.Open(candidate)
	if err != nil {
		return nil, fmt.Errorf("opening asset bundle: %w", err)
	}
	return archive, nil
}

func methodName(method uint16) string {
	for _, c := range []bundle.Compression{bundle.None, bundle.Deflate, bundle.Bzip2} {
		if c.Method() == method {
			return c.String()
		}
	}
	return fmt.Sprintf("method%d", method)
}

func init() {
	rootCmd.AddCommand(entriesCmd)
}
