package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"distpack/internal/cache"
	"distpack/internal/diag"
	"distpack/internal/logging"
	"distpack/internal/pipeline"
	"distpack/internal/project"
	"distpack/internal/rewrite"
)

// session is the state shared by the commands that run the orchestrator:
// the loaded manifest, the diagnostics bag and the configured orchestrator.
type session struct {
	manifest *project.Manifest
	bag      *diag.Bag
	orch     *pipeline.Orchestrator
}

type sessionOptions struct {
	versionString string
	noCache       bool
}

func openSession(cmd *cobra.Command, startDir string, opts sessionOptions) (*session, error) {
	manifest, err := project.Load(startDir)
	if err != nil {
		return nil, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	cfg := manifest.Config

	aliases, err := cfg.AliasTable()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifest.Path, err)
	}
	rwOpts := cfg.RewriteOptions(manifest.Root)
	rules := rewrite.DefaultRegistry(rwOpts)

	bag := diag.NewBag(maxDiagnostics)
	orch := &pipeline.Orchestrator{
		Aliases:     aliases,
		Env:         rewrite.NewEnvReplace(cfg.EnvValues(opts.versionString)),
		Rules:       rules,
		Reporter:    diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
		Fingerprint: fingerprint(rules, rwOpts),
	}
	if cfg.CacheEnabled() && !opts.noCache {
		store, err := openCache(cfg.CacheDir(manifest.Root))
		if err != nil {
			logging.Logger().Warn("transform cache disabled", zap.Error(err))
		} else {
			orch.Cache = store
		}
	}
	return &session{manifest: manifest, bag: bag, orch: orch}, nil
}

func openCache(dir string) (*cache.Store, error) {
	if dir == "" {
		var err error
		dir, err = cache.DefaultDir("distpack")
		if err != nil {
			return nil, err
		}
	}
	store, err := cache.Open(dir)
	if err != nil {
		return nil, err
	}
	logging.Logger().Debug("transform cache", zap.String("dir", store.Dir()))
	return store, nil
}

// fingerprint separates cache entries produced under different rule
// settings.
func fingerprint(rules rewrite.Registry, opts rewrite.Options) string {
	return strings.Join([]string{
		strings.Join(rules.Names(), ","),
		opts.Template,
		opts.PlatformsDir,
		opts.PlatformExt,
		opts.ShimSpecifier,
	}, "|")
}
