package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"distpack/internal/diag"
	"distpack/internal/diagfmt"
)

type diagFormat string

const (
	diagFormatPretty diagFormat = "pretty"
	diagFormatJSON   diagFormat = "json"
)

func readDiagFormat(cmd *cobra.Command) (diagFormat, error) {
	value, err := cmd.Root().PersistentFlags().GetString("format")
	if err != nil {
		return "", err
	}
	switch f := diagFormat(strings.ToLower(strings.TrimSpace(value))); f {
	case "", diagFormatPretty:
		return diagFormatPretty, nil
	case diagFormatJSON:
		return diagFormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be pretty or json)", value)
	}
}

// printDiagnostics renders the bag: pretty output goes to stderr, JSON to
// stdout so it can be piped.
func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, baseDir string) error {
	format, err := readDiagFormat(cmd)
	if err != nil {
		return err
	}
	bag.Sort()
	if format == diagFormatJSON {
		return diagfmt.JSON(cmd.OutOrStdout(), bag, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeAuto,
			BaseDir:          baseDir,
			IncludeNotes:     true,
		})
	}
	if bag.Len() == 0 {
		return nil
	}
	return diagfmt.Pretty(cmd.ErrOrStderr(), bag, diagfmt.PrettyOpts{
		Color:     !color.NoColor,
		PathMode:  diagfmt.PathModeAuto,
		BaseDir:   baseDir,
		ShowNotes: true,
		ShowStage: true,
		Summary:   true,
	})
}
