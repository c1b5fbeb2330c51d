package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] <specifier>...",
	Short: "Show how import specifiers are aliased",
	Args: func(cmd *cobra.Command, args []string) error {
		list, _ := cmd.Flags().GetBool("list")
		if !list && len(args) == 0 {
			return fmt.Errorf("requires at least 1 specifier")
		}
		return nil
	},
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringP("dir", "C", ".", "directory to search for distpack.toml")
	resolveCmd.Flags().Bool("list", false, "print the alias table and the substituted env tokens")
}

func runResolve(cmd *cobra.Command, args []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	sess, err := openSession(cmd, dir, sessionOptions{noCache: true})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	aliases := sess.orch.Aliases
	if list {
		for i, e := range aliases.Entries() {
			if _, err := fmt.Fprintf(out, "%3d  %s\n", i+1, e); err != nil {
				return err
			}
		}
		for _, token := range sess.orch.Env.Tokens() {
			if _, err := fmt.Fprintf(out, "env  %s\n", token); err != nil {
				return err
			}
		}
	}
	for _, spec := range args {
		resolved, entry, ok := aliases.Lookup(spec)
		var err error
		if ok {
			_, err = fmt.Fprintf(out, "%s -> %s  (%s)\n", spec, resolved, entry)
		} else {
			_, err = fmt.Fprintf(out, "%s (no alias)\n", spec)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
