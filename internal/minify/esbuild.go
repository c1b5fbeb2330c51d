package minify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var targets = map[string]api.Target{
	"esnext": api.ESNext,
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es6":    api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
}

// ParseTarget maps a language level such as "es2018" to esbuild's target.
// Empty means es2018.
func ParseTarget(s string) (api.Target, error) {
	if s == "" {
		return api.ES2018, nil
	}
	t, ok := targets[strings.ToLower(s)]
	if !ok {
		return api.DefaultTarget, fmt.Errorf("unknown target %q", s)
	}
	return t, nil
}

// Esbuild minifies with esbuild's transform API.
type Esbuild struct {
	// Sourcefile names the input in the generated map.
	Sourcefile string
}

// Options translates cfg into esbuild transform options.
func (e Esbuild) Options(cfg Config) (api.TransformOptions, error) {
	target, err := ParseTarget(cfg.Target)
	if err != nil {
		return api.TransformOptions{}, err
	}
	opts := api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            target,
		MinifyWhitespace:  true,
		MinifySyntax:      cfg.Compress,
		MinifyIdentifiers: cfg.Mangle,
		LegalComments:     api.LegalCommentsNone,
		Sourcefile:        e.Sourcefile,
		LogLevel:          api.LogLevelSilent,
	}
	if cfg.Module {
		opts.Format = api.FormatCommonJS
	}
	if cfg.Comments {
		opts.LegalComments = api.LegalCommentsInline
	}
	if cfg.Safari10 {
		opts.Engines = []api.Engine{{Name: api.EngineSafari, Version: "10"}}
	}
	if cfg.SourceMap {
		opts.Sourcemap = api.SourceMapExternal
	}
	return opts, nil
}

func (e Esbuild) Minify(ctx context.Context, code string, cfg Config) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	opts, err := e.Options(cfg)
	if err != nil {
		return Output{}, err
	}
	result := api.Transform(code, opts)
	if len(result.Errors) > 0 {
		errs := make([]error, len(result.Errors))
		for i, msg := range result.Errors {
			errs[i] = messageError(msg)
		}
		return Output{}, errors.Join(errs...)
	}
	return Output{Code: string(result.Code), MapJSON: string(result.Map)}, nil
}

func messageError(msg api.Message) error {
	if msg.Location == nil {
		return errors.New(msg.Text)
	}
	return fmt.Errorf("%d:%d: %s", msg.Location.Line, msg.Location.Column, msg.Text)
}
