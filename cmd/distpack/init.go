package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"distpack/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Create a starter distpack.toml",
	Long: `Create a distpack.toml with one target and, if it does not exist yet, the
entry script it points at. If [path|name] is omitted, initializes the current
directory; a non-existing name is created as a directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("entry", "src/cli.js", "entry script of the starter target")
}

const starterEntry = `#!/usr/bin/env node
'use strict';

console.log('hello from ' + (process.env.VERSION || 'dev'));
`

func runInit(cmd *cobra.Command, args []string) error {
	entry, err := cmd.Flags().GetString("entry")
	if err != nil {
		return err
	}
	if filepath.IsAbs(entry) {
		return fmt.Errorf("--entry must be relative to the project directory")
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := wd
	if len(args) == 1 && args[0] != "." {
		target = args[0]
		if !filepath.IsAbs(target) {
			target = filepath.Join(wd, target)
		}
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := projectName(target)
	manifestPath, err := project.WriteDefault(target, name, filepath.ToSlash(entry))
	if err != nil {
		return err
	}
	created := []string{manifestPath}

	entryPath := filepath.Join(target, filepath.FromSlash(entry))
	if _, err := os.Stat(entryPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(entryPath), 0o755); err != nil {
			return err
		}
		// #nosec G306 -- the entry is an executable script
		if err := os.WriteFile(entryPath, []byte(starterEntry), 0o755); err != nil {
			return fmt.Errorf("failed to write %s: %w", entryPath, err)
		}
		created = append(created, entryPath)
	}

	out := cmd.OutOrStdout()
	for _, p := range created {
		if _, err := fmt.Fprintf(out, "created %s\n", formatPathForOutput(wd, p)); err != nil {
			return err
		}
	}
	return nil
}

// projectName derives a package-style name from the directory basename.
func projectName(dir string) string {
	name := strings.ToLower(strings.TrimSpace(filepath.Base(dir)))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, name)
	name = strings.Trim(name, ".-_")
	if name == "" {
		return "distpack-project"
	}
	return name
}
