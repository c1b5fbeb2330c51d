// Package host adapts the build stages to esbuild: a plugin for resolve and
// load hooks, and a bundle runner that feeds esbuild's chunk through the
// minification stage.
package host

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"

	"distpack/internal/alias"
	"distpack/internal/logging"
	"distpack/internal/pipeline"
	runtimeembed "distpack/runtime"
)

const (
	// PluginName is reported by esbuild in messages raised by the plugin.
	PluginName = "distpack"
	// StubNamespace holds the embedded stand-in modules.
	StubNamespace = "distpack-stub"
)

// resolveGuard marks resolutions issued by the plugin itself so the alias
// hook does not see its own replacements again.
type resolveGuard struct{}

// Plugin exposes the orchestrator to esbuild. ctx bounds every transform.
func Plugin(ctx context.Context, o *pipeline.Orchestrator) api.Plugin {
	return api.Plugin{
		Name: PluginName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				return onResolve(build, o, args)
			})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: StubNamespace}, onLoadStub)
			build.OnLoad(api.OnLoadOptions{Filter: `\.[cm]?js$`, Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				return onLoad(ctx, o, args)
			})
		},
	}
}

func onResolve(build api.PluginBuild, o *pipeline.Orchestrator, args api.OnResolveArgs) (api.OnResolveResult, error) {
	if _, ok := args.PluginData.(resolveGuard); ok {
		return api.OnResolveResult{}, nil
	}
	// rewritten modules reference stand-ins directly
	if name, isStub := strings.CutPrefix(args.Path, alias.StubPrefix); isStub {
		return api.OnResolveResult{Path: name, Namespace: StubNamespace}, nil
	}
	if args.Namespace == StubNamespace {
		// stand-ins only reach for core or optional native modules
		if !strings.HasPrefix(args.Path, ".") {
			return api.OnResolveResult{Path: args.Path, External: true}, nil
		}
		return api.OnResolveResult{}, nil
	}
	replacement, ok := o.Resolve(args.Path)
	if !ok {
		return api.OnResolveResult{}, nil
	}
	if name, isStub := strings.CutPrefix(replacement, alias.StubPrefix); isStub {
		return api.OnResolveResult{Path: name, Namespace: StubNamespace}, nil
	}
	if IsBuiltin(replacement) {
		return api.OnResolveResult{Path: replacement, External: true}, nil
	}
	res := build.Resolve(filepath.ToSlash(replacement), api.ResolveOptions{
		Importer:   args.Importer,
		Namespace:  args.Namespace,
		ResolveDir: args.ResolveDir,
		Kind:       args.Kind,
		PluginData: resolveGuard{},
	})
	if len(res.Errors) > 0 {
		return api.OnResolveResult{Errors: res.Errors, Warnings: res.Warnings}, nil
	}
	sideEffects := api.SideEffectsTrue
	if !res.SideEffects {
		sideEffects = api.SideEffectsFalse
	}
	return api.OnResolveResult{
		Path:        res.Path,
		Namespace:   res.Namespace,
		External:    res.External,
		SideEffects: sideEffects,
		Suffix:      res.Suffix,
		Warnings:    res.Warnings,
	}, nil
}

func onLoadStub(args api.OnLoadArgs) (api.OnLoadResult, error) {
	code, err := runtimeembed.Stub(args.Path)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	return api.OnLoadResult{Contents: &code, Loader: api.LoaderJS}, nil
}

func onLoad(ctx context.Context, o *pipeline.Orchestrator, args api.OnLoadArgs) (api.OnLoadResult, error) {
	// #nosec G304 -- esbuild hands us files it resolved inside the build
	data, err := os.ReadFile(args.Path)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	out, err := o.Transform(ctx, args.Path, string(data))
	if err != nil {
		return api.OnLoadResult{}, err
	}
	if !out.Changed {
		return api.OnLoadResult{}, nil
	}
	logging.Logger().Debug("transformed",
		zap.String("module", args.Path),
		zap.String("rule", out.Rule),
		zap.Bool("cached", out.Cached))
	return api.OnLoadResult{
		Contents:   &out.Code,
		Loader:     api.LoaderJS,
		ResolveDir: filepath.Dir(args.Path),
	}, nil
}
