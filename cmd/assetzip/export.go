package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jchantrell/assetzip/internal/export"
	"github.com/jchantrell/assetzip/internal/utils"
	"github.com/spf13/cobra"
)

var flatten bool

var exportCmd = &cobra.Command{
	Use:   "export OUT",
	Short: "Unpack every bundle entry into a directory",
	Long: `Export lists the entries of the current bundle and loads each one through
the resolver into OUT, recreating the directory layout. With --flatten every
file is written directly into OUT with "/" replaced by "@".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		archive, err := openBundle()
		if err != nil {
			return err
		}
		var paths []string
		for _, e := range archive.Entries() {
			paths = append(paths, e.Name)
		}
		archive.Close()

		resolver, _, err := newResolver()
		if err != nil {
			return err
		}

		slog.Info("Exporting bundle", "entries", len(paths), "output", args[0])

		progress := utils.NewProgress("exporting", len(paths), progressEnabled())
		stats, err := export.NewExporter(resolver, args[0], flatten).ExportFiles(cmd.Context(), paths, progress.Callback())
		progress.Finish()
		if err != nil {
			return fmt.Errorf("exporting bundle: %w", err)
		}

		fmt.Printf("Files exported: %s\n", utils.Number(int64(stats.Files)))
		fmt.Printf("Bytes written: %s\n", utils.Bytes(stats.Bytes))
		fmt.Printf("Duration: %s\n", utils.Duration(time.Since(start)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().BoolVar(&flatten, "flatten", false, "write every file directly into OUT")
}
