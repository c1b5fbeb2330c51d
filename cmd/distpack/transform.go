package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var transformCmd = &cobra.Command{
	Use:   "transform [flags] <file>",
	Short: "Run the rewrite rules over one module and print the result",
	Long: `Run environment substitution and the rewrite rules over a single file,
exactly as the bundler would when loading it, and print the rewritten source.
Nothing is printed to stdout when no rule applies.`,
	Args: cobra.ExactArgs(1),
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringP("dir", "C", "", "directory to search for distpack.toml (default: the file's directory)")
	transformCmd.Flags().String("version-string", "", "value substituted for process.env.VERSION")
	transformCmd.Flags().Bool("no-cache", false, "disable the transform cache")
}

func runTransform(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	if dir == "" {
		dir = filepath.Dir(path)
	}
	versionString, err := cmd.Flags().GetString("version-string")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	sess, err := openSession(cmd, dir, sessionOptions{versionString: versionString, noCache: noCache})
	if err != nil {
		return err
	}

	// #nosec G304 -- the path is the command argument
	code, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := sess.orch.Transform(cmd.Context(), path, string(code))
	if printErr := printDiagnostics(cmd, sess.bag, sess.manifest.Root); printErr != nil {
		return printErr
	}
	if err != nil {
		return err
	}
	if sess.bag.HasErrors() {
		return errors.New("transform reported errors")
	}
	if !out.Changed {
		_, err = fmt.Fprintf(cmd.ErrOrStderr(), "%s: unchanged\n", formatPathForOutput(sess.manifest.Root, path))
		return err
	}
	rule := out.Rule
	if rule == "" {
		rule = "env"
	}
	if out.Cached {
		rule += ", cached"
	}
	if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "%s: rewritten (%s)\n", formatPathForOutput(sess.manifest.Root, path), rule); err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out.Code)
	return err
}
