package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"distpack/internal/version"
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show distpack build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := readDiagFormat(cmd)
		if err != nil {
			return err
		}
		if format == diagFormatJSON {
			return renderVersionJSON(cmd.OutOrStdout())
		}
		return renderVersionPretty(cmd.OutOrStdout(), !color.NoColor)
	},
}

func renderVersionPretty(out io.Writer, useColor bool) error {
	if _, err := fmt.Fprintf(out, "distpack %s\n", version.Colored(useColor)); err != nil {
		return err
	}
	if c := strings.TrimSpace(version.GitCommit); c != "" {
		if _, err := fmt.Fprintf(out, "commit: %s\n", c); err != nil {
			return err
		}
	}
	if d := strings.TrimSpace(version.BuildDate); d != "" {
		if _, err := fmt.Fprintf(out, "built:  %s\n", d); err != nil {
			return err
		}
	}
	return nil
}

func renderVersionJSON(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(versionPayload{
		Tool:      "distpack",
		Version:   version.Version,
		GitCommit: strings.TrimSpace(version.GitCommit),
		BuildDate: strings.TrimSpace(version.BuildDate),
	})
}
