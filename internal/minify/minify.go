// Package minify runs the final chunk through a minifier with timing
// diagnostics, an empty-output fallback and source map normalisation.
package minify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"distpack/internal/diag"
	"distpack/internal/logging"
)

// ErrMinify wraps every minifier failure returned by Stage.
var ErrMinify = errors.New("minification failed")

// DefaultWarnThreshold is the duration above which a slow minification is
// reported in debug mode.
const DefaultWarnThreshold = 50 * time.Millisecond

// Config is the fixed minifier configuration of a build.
type Config struct {
	Target    string
	Compress  bool
	Mangle    bool
	Module    bool
	Comments  bool
	Safari10  bool
	SourceMap bool
}

// DefaultConfig is the distribution configuration: es2018, mangled, module
// aware, no comments, safe for Safari 10.
func DefaultConfig(compress bool) Config {
	return Config{
		Target:   "es2018",
		Compress: compress,
		Mangle:   true,
		Module:   true,
		Safari10: true,
	}
}

// SourceMap is a version 3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// JSON serialises the map.
func (m *SourceMap) JSON() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Output is what a minifier returns. A map may come serialised (MapJSON)
// or structured (Map); both may be empty.
type Output struct {
	Code    string
	MapJSON string
	Map     *SourceMap
}

// Minifier compresses one chunk of code.
type Minifier interface {
	Minify(ctx context.Context, code string, cfg Config) (Output, error)
}

// MinifierFunc adapts a function to Minifier.
type MinifierFunc func(ctx context.Context, code string, cfg Config) (Output, error)

func (f MinifierFunc) Minify(ctx context.Context, code string, cfg Config) (Output, error) {
	return f(ctx, code, cfg)
}

// Chunk is the assembled bundle handed to the stage.
type Chunk struct {
	FileName string
	Code     string
}

// Rendered is the final artifact text and its normalised map.
type Rendered struct {
	Code    string
	Map     *SourceMap
	Elapsed time.Duration
	// Fallback is set when the minifier returned no code and the input was
	// kept.
	Fallback bool
}

// Stage is the render-chunk hook.
type Stage struct {
	Minifier      Minifier
	Config        Config
	// WarnThreshold is compared in whole milliseconds and used as given;
	// callers wanting the default pass DefaultWarnThreshold.
	WarnThreshold time.Duration
	// Debug gates the slow-minification warning.
	Debug    bool
	Reporter diag.Reporter
	Now      func() time.Time
}

// RenderChunk minifies chunk. A minifier error is fatal for the chunk; an
// empty result falls back to the input code.
func (s *Stage) RenderChunk(ctx context.Context, chunk Chunk) (Rendered, error) {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	rep := s.Reporter
	if rep == nil {
		rep = diag.NopReporter{}
	}

	start := now()
	out, err := s.Minifier.Minify(ctx, chunk.Code, s.Config)
	elapsed := now().Sub(start)
	if err != nil {
		diag.ReportError(rep, diag.MinifyFailed, err.Error()).
			InModule(chunk.FileName).
			FromStage("minify").
			Emit()
		return Rendered{}, fmt.Errorf("%w: %s: %w", ErrMinify, chunk.FileName, err)
	}

	res := Rendered{Code: out.Code, Elapsed: elapsed}
	if res.Code == "" {
		res.Code = chunk.Code
		res.Fallback = true
		logging.Logger().Debug("minifier returned no code, keeping input", zap.String("chunk", chunk.FileName))
	}

	if s.Debug && elapsed.Milliseconds() > s.WarnThreshold.Milliseconds() {
		diag.ReportWarning(rep, diag.MinifySlow,
			fmt.Sprintf("minify(%s) took %dms", chunk.FileName, elapsed.Milliseconds())).
			InModule(chunk.FileName).
			FromStage("minify").
			Emit()
	}

	switch {
	case out.MapJSON != "":
		var m SourceMap
		if err := json.Unmarshal([]byte(out.MapJSON), &m); err != nil {
			diag.ReportError(rep, diag.MinifyBadMap, err.Error()).
				InModule(chunk.FileName).
				FromStage("minify").
				Emit()
			return Rendered{}, fmt.Errorf("%w: %s: source map: %w", ErrMinify, chunk.FileName, err)
		}
		res.Map = &m
	case out.Map != nil:
		res.Map = out.Map
	}
	return res, nil
}
