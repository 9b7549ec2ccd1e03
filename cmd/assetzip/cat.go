package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat PATH...",
	Short: "Write assets to stdout",
	Long: `Cat loads each asset through the resolver, so an entry in the bundle wins
over the loose file of the same path, and writes the bytes to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, _, err := newResolver()
		if err != nil {
			return err
		}

		for _, path := range args {
			data, err := resolver.Load(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			if _, err := os.Stdout.Write(data); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
