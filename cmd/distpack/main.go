// Package main implements the distpack CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"distpack/internal/logging"
	"distpack/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "distpack",
	Short: "Bundle a Node CLI and its dependencies into one redistributable file",
	Long: `distpack bundles a JavaScript CLI and its npm dependencies into a single
artifact, rewriting the dependency patterns that do not survive bundling.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupGlobals,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(bundleCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log cache, alias and rewrite decisions")
	rootCmd.PersistentFlags().Bool("debug", false, "report slow minification (also DEBUG=1)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("format", "pretty", "diagnostics format (pretty|json)")
}

// main runs the root command. Interrupts cancel the running build; any
// error exits with status 1.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func setupGlobals(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return err
	}
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	} else if f := cmd.Flags().Lookup("log-deps"); f != nil && f.Value.String() == "true" {
		level = zapcore.InfoLevel
	}
	logger, err := logging.New(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logging.SetLogger(logger)

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return err
	}
	useColor, err := readColorMode(colorFlag)
	if err != nil {
		return err
	}
	color.NoColor = !useColor
	logging.Logger().Debug("cli",
		zap.String("command", cmd.Name()),
		zap.String("build", version.String()),
		zap.Bool("color", useColor))
	return nil
}

func readColorMode(value string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
