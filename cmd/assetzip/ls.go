package main

import (
	"fmt"
	"io/fs"

	"github.com/jchantrell/assetzip/pkg/assetio"
	"github.com/spf13/cobra"
)

var recursive bool

var lsCmd = &cobra.Command{
	Use:   "ls [DIR]",
	Short: "List an asset directory",
	Long: `Ls lists a directory as the resolver sees it. Listings always come from the
loose asset directory; use "entries" to see what the bundle holds.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		resolver, _, err := newResolver()
		if err != nil {
			return err
		}
		fsys := assetio.NewFS(cmd.Context(), resolver)

		if !recursive {
			entries, err := fs.ReadDir(fsys, dir)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Println(displayName(e.Name(), e.IsDir()))
			}
			return nil
		}

		return fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == dir {
				return nil
			}
			fmt.Println(displayName(path, d.IsDir()))
			return nil
		})
	},
}

func displayName(name string, isDir bool) string {
	if isDir {
		return name + "/"
	}
	return name
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "list subdirectories recursively")
}
