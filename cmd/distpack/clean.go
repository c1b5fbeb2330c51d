package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"distpack/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [flags]",
	Short: "Remove the transform cache",
	Long:  "Remove every cached module rewrite for the project's cache directory.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().StringP("dir", "C", ".", "directory to search for distpack.toml")
}

func runClean(cmd *cobra.Command, _ []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	manifest, err := project.Load(dir)
	if err != nil {
		return err
	}
	store, err := openCache(manifest.Config.CacheDir(manifest.Root))
	if err != nil {
		return err
	}
	if err := store.DropAll(); err != nil {
		return fmt.Errorf("failed to clear %q: %w", store.Dir(), err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", formatPathForOutput(manifest.Root, store.Dir()))
	return err
}
