package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"distpack/internal/host"
	"distpack/internal/logging"
	"distpack/internal/minify"
	"distpack/internal/observ"
	"distpack/internal/pipeline"
	"distpack/internal/prof"
	"distpack/internal/project"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle [flags] [target...]",
	Short: "Build the targets declared in distpack.toml",
	Long: `Build every [[target]] of the nearest distpack.toml, or only the named
targets. Each target is bundled, minified and written with its shebang and
executable mode preserved.`,
	RunE: runBundle,
}

func init() {
	bundleCmd.Flags().StringP("dir", "C", ".", "directory to search for distpack.toml")
	bundleCmd.Flags().Int("jobs", 0, "targets built in parallel (0 = one per target)")
	bundleCmd.Flags().Bool("dry-run", false, "build without writing artifacts")
	bundleCmd.Flags().Bool("log-deps", false, "log the packages bundled into each target")
	bundleCmd.Flags().String("version-string", "", "value substituted for process.env.VERSION")
	bundleCmd.Flags().Bool("no-cache", false, "disable the transform cache")
	bundleCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	bundleCmd.Flags().String("cpuprofile", "", "write a CPU profile to file")
	bundleCmd.Flags().String("memprofile", "", "write a heap profile to file")
	bundleCmd.Flags().String("runtime-trace", "", "write a Go runtime trace to file")
}

type bundleOptions struct {
	jobs    int
	dryRun  bool
	logDeps bool
	debug   bool
	timings bool
	ui      uiMode
	format  diagFormat
}

func runBundle(cmd *cobra.Command, args []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	versionString, err := cmd.Flags().GetString("version-string")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	opts, err := readBundleOptions(cmd)
	if err != nil {
		return err
	}
	profiling, err := startProfiling(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := profiling.Stop(); stopErr != nil {
			logging.Logger().Warn("profiling", zap.Error(stopErr))
		}
	}()

	sess, err := openSession(cmd, dir, sessionOptions{versionString: versionString, noCache: noCache})
	if err != nil {
		return err
	}
	targets, err := selectTargets(sess.manifest, args)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	requests := make([]host.Request, len(targets))
	for i, t := range targets {
		requests[i] = newRequest(sess, t, opts)
	}

	var results []host.Result
	if progressEnabled(opts.ui, opts.format, len(requests)) {
		results, err = runBundleWithUI(cmd.Context(), "distpack bundle", requests, opts, timer)
	} else {
		results, err = bundleAll(cmd.Context(), requests, opts, timer, nil)
	}

	if printErr := printDiagnostics(cmd, sess.bag, sess.manifest.Root); printErr != nil {
		return printErr
	}
	if opts.timings {
		out := cmd.ErrOrStderr()
		if _, printErr := fmt.Fprint(out, timer.Summary()); printErr != nil {
			return printErr
		}
		if printErr := printTransformStats(out, sess.orch.Stats()); printErr != nil {
			return printErr
		}
	}
	if err != nil {
		return err
	}
	if sess.bag.HasErrors() {
		return errors.New("build reported errors")
	}

	out := cmd.OutOrStdout()
	if opts.format == diagFormatJSON {
		out = cmd.ErrOrStderr()
	}
	for _, res := range results {
		verb := "built"
		if opts.dryRun {
			verb = "checked"
		}
		if _, err := fmt.Fprintf(out, "%s %s (%d bytes)\n", verb, formatPathForOutput(sess.manifest.Root, res.Outfile), len(res.Code)); err != nil {
			return err
		}
	}
	return nil
}

func readBundleOptions(cmd *cobra.Command) (bundleOptions, error) {
	var opts bundleOptions
	var err error
	if opts.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return opts, err
	}
	if opts.jobs < 0 {
		return opts, fmt.Errorf("--jobs must not be negative")
	}
	if opts.dryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return opts, err
	}
	if opts.logDeps, err = cmd.Flags().GetBool("log-deps"); err != nil {
		return opts, err
	}
	if opts.debug, err = cmd.Root().PersistentFlags().GetBool("debug"); err != nil {
		return opts, err
	}
	opts.debug = opts.debug || minify.DebugFromEnv(os.Args[1:])
	if opts.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return opts, err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return opts, err
	}
	if opts.ui, err = readUIMode(uiValue); err != nil {
		return opts, err
	}
	if opts.format, err = readDiagFormat(cmd); err != nil {
		return opts, err
	}
	return opts, nil
}

func startProfiling(cmd *cobra.Command) (*prof.Session, error) {
	var opts prof.Options
	var err error
	if opts.CPU, err = cmd.Flags().GetString("cpuprofile"); err != nil {
		return nil, err
	}
	if opts.Mem, err = cmd.Flags().GetString("memprofile"); err != nil {
		return nil, err
	}
	if opts.Trace, err = cmd.Flags().GetString("runtime-trace"); err != nil {
		return nil, err
	}
	if !opts.Enabled() {
		return nil, nil
	}
	return prof.Start(opts)
}

// selectTargets returns the named targets in manifest order, or all of
// them when names is empty.
func selectTargets(m *project.Manifest, names []string) ([]project.TargetConfig, error) {
	if len(names) == 0 {
		return m.Config.Targets, nil
	}
	var unknown []string
	for _, name := range names {
		if _, ok := m.Target(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown target(s) %s (available: %s)",
			strings.Join(unknown, ", "), strings.Join(m.TargetNames(), ", "))
	}
	var out []project.TargetConfig
	for _, t := range m.Config.Targets {
		if slices.Contains(names, t.Name) {
			out = append(out, t)
		}
	}
	return out, nil
}

func newRequest(sess *session, t project.TargetConfig, opts bundleOptions) host.Request {
	cfg := sess.manifest.Config
	return host.Request{
		Name:         t.Name,
		Root:         sess.manifest.Root,
		Entry:        t.Entry,
		Outfile:      t.Outfile,
		SourceMap:    t.Sourcemap,
		Banner:       t.Banner,
		Write:        !opts.dryRun,
		LogDeps:      opts.logDeps,
		Orchestrator: sess.orch,
		Reporter:     sess.orch.Reporter,
		Minify: &minify.Stage{
			Minifier:      minify.Esbuild{Sourcefile: filepath.Base(t.Outfile)},
			Config:        cfg.MinifyConfig(t),
			WarnThreshold: cfg.WarnThreshold(),
			Debug:         opts.debug,
			Reporter:      sess.orch.Reporter,
		},
	}
}

// bundleAll builds the requests concurrently and returns the results in
// request order.
func bundleAll(ctx context.Context, requests []host.Request, opts bundleOptions, timer *observ.Timer, sink pipeline.ProgressSink) ([]host.Result, error) {
	names := make([]string, len(requests))
	for i, req := range requests {
		names[i] = req.Name
	}
	pipeline.EmitQueued(sink, names)

	results := make([]host.Result, len(requests))
	idx := timer.Begin("bundle")
	err := pipeline.BuildAll(ctx, requests, opts.jobs, func(ctx context.Context, i int, req host.Request) error {
		req.Progress = sink
		res, err := host.Bundle(ctx, req)
		results[i] = res
		recordTimings(timer, req.Name, res.Timings)
		return err
	})
	timer.End(idx, fmt.Sprintf("%d targets", len(requests)))
	return results, err
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
