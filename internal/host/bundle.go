package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"

	"distpack/internal/diag"
	"distpack/internal/logging"
	"distpack/internal/minify"
	"distpack/internal/pipeline"
	"distpack/internal/rewrite"
	"distpack/internal/source"
)

// ErrBundle is returned when esbuild reports errors.
var ErrBundle = errors.New("bundle failed")

// Request describes one target build.
type Request struct {
	Name string
	// Root is the directory relative paths are resolved against.
	Root      string
	Entry     string
	Outfile   string
	SourceMap bool
	Banner    string
	// Write is false for dry runs: the artifact is returned but not saved.
	Write bool
	// LogDeps logs the bundled packages once the build succeeds.
	LogDeps bool

	Orchestrator *pipeline.Orchestrator
	Minify       *minify.Stage
	Reporter     diag.Reporter
	Progress     pipeline.ProgressSink
}

// Result is a finished target.
type Result struct {
	Outfile  string
	Code     string
	Map      []byte
	Metafile *Metafile
	Deps     pipeline.DependencyLog
	Timings  pipeline.Timings
}

// Bundle runs esbuild over the target with the plugin installed, minifies
// the single chunk, restores the entry shebang and writes the artifact.
func Bundle(ctx context.Context, req Request) (Result, error) {
	var result Result
	if req.Orchestrator == nil || req.Minify == nil {
		return result, fmt.Errorf("bundle %s: missing orchestrator or minify stage", req.Name)
	}
	rep := req.Reporter
	if rep == nil {
		rep = diag.NopReporter{}
	}
	entry := abs(req.Root, req.Entry)
	outfile := abs(req.Root, req.Outfile)
	result.Outfile = outfile

	// #nosec G304 -- entry comes from the project manifest
	entryCode, err := os.ReadFile(entry)
	if err != nil {
		return result, fmt.Errorf("bundle %s: %w", req.Name, err)
	}
	shebang, _ := rewrite.SplitShebang(string(entryCode))

	bundleStart := time.Now()
	pipeline.Emit(req.Progress, req.Name, pipeline.StageBundle, pipeline.StatusWorking, nil, 0)
	opts := api.BuildOptions{
		EntryPoints:   []string{entry},
		Outfile:       outfile,
		AbsWorkingDir: abs(req.Root, "."),
		Bundle:        true,
		Platform:      api.PlatformNode,
		Format:        api.FormatCommonJS,
		Write:         false,
		Metafile:      true,
		External:      BuiltinExternals(),
		LogLevel:      api.LogLevelSilent,
		Plugins:       []api.Plugin{Plugin(ctx, req.Orchestrator)},
	}
	if req.Banner != "" {
		opts.Banner = map[string]string{"js": req.Banner}
	}
	build, ctxErr := api.Context(opts)
	if ctxErr != nil {
		err := fmt.Errorf("%w: %s: %w", ErrBundle, req.Name, messagesError(ctxErr.Errors))
		pipeline.Emit(req.Progress, req.Name, pipeline.StageBundle, pipeline.StatusError, err, 0)
		return result, err
	}
	defer build.Dispose()
	stop := context.AfterFunc(ctx, build.Cancel)
	built := build.Rebuild()
	stop()

	reportMessages(rep, built.Warnings, diag.SevWarning, diag.HostWarning)
	if len(built.Errors) > 0 {
		reportMessages(rep, built.Errors, diag.SevError, diag.HostError)
		err := fmt.Errorf("%w: %s: %w", ErrBundle, req.Name, messagesError(built.Errors))
		pipeline.Emit(req.Progress, req.Name, pipeline.StageBundle, pipeline.StatusError, err, 0)
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	result.Timings.Set(pipeline.StageBundle, time.Since(bundleStart))
	pipeline.Emit(req.Progress, req.Name, pipeline.StageBundle, pipeline.StatusDone, nil, result.Timings.Duration(pipeline.StageBundle))

	meta, err := ParseMetafile(built.Metafile)
	if err != nil {
		return result, fmt.Errorf("bundle %s: %w", req.Name, err)
	}
	result.Metafile = meta
	result.Deps = pipeline.NewDependencyLog(req.Name, meta.InputPaths())

	chunk, ok := jsOutput(built.OutputFiles)
	if !ok {
		diag.ReportError(rep, diag.MinifyNoChunk, "bundle produced no JavaScript output").
			InModule(outfile).
			FromStage(string(pipeline.StageBundle)).
			Emit()
		return result, fmt.Errorf("%w: %s: no output chunk", ErrBundle, req.Name)
	}

	pipeline.Emit(req.Progress, req.Name, pipeline.StageMinify, pipeline.StatusWorking, nil, 0)
	rendered, err := req.Minify.RenderChunk(ctx, minify.Chunk{FileName: filepath.Base(outfile), Code: string(chunk.Contents)})
	if err != nil {
		pipeline.Emit(req.Progress, req.Name, pipeline.StageMinify, pipeline.StatusError, err, 0)
		return result, err
	}
	result.Timings.Set(pipeline.StageMinify, rendered.Elapsed)
	pipeline.Emit(req.Progress, req.Name, pipeline.StageMinify, pipeline.StatusDone, nil, rendered.Elapsed)

	code := rewrite.EnsureShebang(rendered.Code, shebang)
	if rendered.Map != nil && req.SourceMap {
		mapJSON, err := rendered.Map.JSON()
		if err != nil {
			return result, fmt.Errorf("bundle %s: source map: %w", req.Name, err)
		}
		result.Map = mapJSON
		code = strings.TrimRight(code, "\n") + "\n//# sourceMappingURL=" + filepath.Base(outfile) + ".map\n"
	}
	result.Code = code

	if req.Write {
		writeStart := time.Now()
		pipeline.Emit(req.Progress, req.Name, pipeline.StageWrite, pipeline.StatusWorking, nil, 0)
		if err := writeArtifact(outfile, code, result.Map); err != nil {
			diag.ReportError(rep, diag.HostWrite, err.Error()).InModule(outfile).FromStage(string(pipeline.StageWrite)).Emit()
			pipeline.Emit(req.Progress, req.Name, pipeline.StageWrite, pipeline.StatusError, err, 0)
			return result, err
		}
		result.Timings.Set(pipeline.StageWrite, time.Since(writeStart))
		pipeline.Emit(req.Progress, req.Name, pipeline.StageWrite, pipeline.StatusDone, nil, result.Timings.Duration(pipeline.StageWrite))
	}

	if req.LogDeps {
		result.Deps.Emit()
	}
	logging.Logger().Debug("target built",
		zap.String("target", req.Name),
		zap.String("outfile", outfile),
		zap.Int("bytes", len(code)),
		zap.Int("packages", len(result.Deps.Packages)))
	return result, nil
}

func writeArtifact(outfile, code string, sourceMap []byte) error {
	if err := os.MkdirAll(filepath.Dir(outfile), 0o750); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	// #nosec G306 -- the artifact is an executable script
	if err := os.WriteFile(outfile, []byte(code), 0o755); err != nil {
		return fmt.Errorf("failed to write %q: %w", outfile, err)
	}
	// WriteFile keeps the mode of an existing file
	// #nosec G302 -- the artifact is an executable script
	if err := os.Chmod(outfile, 0o755); err != nil {
		return fmt.Errorf("failed to mark %q executable: %w", outfile, err)
	}
	if sourceMap != nil {
		if err := os.WriteFile(outfile+".map", sourceMap, 0o600); err != nil {
			return fmt.Errorf("failed to write source map: %w", err)
		}
	}
	return nil
}

func jsOutput(files []api.OutputFile) (api.OutputFile, bool) {
	for _, f := range files {
		if strings.HasSuffix(f.Path, ".map") {
			continue
		}
		return f, true
	}
	return api.OutputFile{}, false
}

func abs(root, p string) string {
	if p == "" {
		p = "."
	}
	if !filepath.IsAbs(p) && root != "" {
		p = filepath.Join(root, p)
	}
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}

func messagesError(msgs []api.Message) error {
	errs := make([]error, 0, len(msgs))
	for _, msg := range msgs {
		errs = append(errs, errors.New(formatMessage(msg)))
	}
	return errors.Join(errs...)
}

func formatMessage(msg api.Message) string {
	text := msg.Text
	if msg.PluginName != "" {
		text = "[plugin " + msg.PluginName + "] " + text
	}
	if msg.Location == nil {
		return text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column+1, text)
}

// reportMessages converts esbuild messages into diagnostics.
func reportMessages(rep diag.Reporter, msgs []api.Message, sev diag.Severity, code diag.Code) {
	for _, msg := range msgs {
		b := diag.NewReportBuilder(rep, sev, code, msg.Text).FromStage(string(pipeline.StageBundle))
		if msg.Location != nil {
			b.InModule(msg.Location.File).At(lineCol(msg.Location.Line, msg.Location.Column+1))
		}
		if msg.PluginName != "" {
			b.WithNote("raised by plugin " + msg.PluginName)
		}
		for _, note := range msg.Notes {
			b.WithNote(note.Text)
		}
		b.Emit()
	}
}

func lineCol(line, col int) source.LineCol {
	l, err := safecast.Conv[uint32](max(line, 0))
	if err != nil {
		l = 0
	}
	c, err := safecast.Conv[uint32](max(col, 0))
	if err != nil {
		c = 0
	}
	return source.LineCol{Line: l, Col: c}
}
