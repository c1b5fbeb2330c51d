// Package pipeline wires the alias table and the rewrite rules into the
// per-module hooks the host bundler calls, and drives whole builds.
package pipeline

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"distpack/internal/alias"
	"distpack/internal/cache"
	"distpack/internal/diag"
	"distpack/internal/logging"
	"distpack/internal/rewrite"
	"distpack/internal/source"
)

// Orchestrator applies alias substitution at resolve time and the rewrite
// rules at load time. All fields are read-only after construction, so one
// Orchestrator serves concurrent calls from the host.
type Orchestrator struct {
	Aliases  *alias.Table
	Env      *rewrite.EnvReplace
	Rules    rewrite.Registry
	Cache    *cache.Store
	Reporter diag.Reporter
	// Fingerprint identifies the rule configuration in cache keys; empty
	// means the rule names.
	Fingerprint string

	stats counters
}

// Output is the result of one Transform. Changed == false tells the host
// to keep its own loading.
type Output struct {
	Code    string
	Changed bool
	// Rule names the rewrite that produced Code, if any.
	Rule   string
	Cached bool
}

// Stats summarises the transform work done so far.
type Stats struct {
	Modules   int64
	Changed   int64
	CacheHits int64
	Elapsed   time.Duration
}

type counters struct {
	modules   atomic.Int64
	changed   atomic.Int64
	cacheHits atomic.Int64
	elapsed   atomic.Int64
}

// Resolve maps a specifier through the alias table.
func (o *Orchestrator) Resolve(specifier string) (string, bool) {
	if o == nil || o.Aliases == nil {
		return specifier, false
	}
	out, ok := o.Aliases.Resolve(specifier)
	if ok {
		logging.Logger().Debug("alias", zap.String("from", specifier), zap.String("to", out))
	}
	return out, ok
}

// Transform runs env substitution and then the rules in order on one
// module. The first rule that changes the text wins.
func (o *Orchestrator) Transform(ctx context.Context, id, code string) (Output, error) {
	start := time.Now()
	defer func() {
		o.stats.modules.Add(1)
		o.stats.elapsed.Add(int64(time.Since(start)))
	}()

	m := source.NewModule(id, code)
	if text, ok := o.Env.Apply(m.Text); ok {
		m.Replace(text)
	}

	var key source.Digest
	if o.Cache != nil {
		key = cache.Key(o.fingerprint(), id, m.Text)
		entry, ok, err := o.Cache.Get(key)
		if err != nil {
			diag.ReportWarning(o.reporter(), diag.CacheCorrupt, err.Error()).
				InModule(id).
				FromStage(string(StageTransform)).
				Emit()
		}
		if ok {
			o.stats.cacheHits.Add(1)
			o.stats.changed.Add(1)
			return Output{Code: entry.Code, Changed: true, Rule: entry.Rule, Cached: true}, nil
		}
	}

	rep := &countingReporter{next: o.reporter()}
	res, rule, err := o.Rules.Apply(ctx, m, rep)
	if err != nil {
		diag.ReportError(o.reporter(), diag.RewriteFailed, err.Error()).
			InModule(id).
			FromStage(rule).
			Emit()
		return Output{}, err
	}
	if res.Changed {
		m.Replace(res.Code)
		logging.Logger().Debug("rewrite",
			zap.String("module", id),
			zap.String("rule", rule),
			zap.Int("deps", len(res.Deps)))
		// results that warned or listed a directory are recomputed every build
		if o.Cache != nil && !res.Volatile && rep.n.Load() == 0 {
			entry := &cache.Entry{ID: id, Rule: rule, Code: m.Text, Deps: res.Deps}
			if err := o.Cache.Put(key, entry); err != nil {
				logging.Logger().Warn("cache put failed", zap.String("module", id), zap.Error(err))
			}
		}
	}
	if !m.Changed() {
		return Output{}, nil
	}
	o.stats.changed.Add(1)
	return Output{Code: m.Text, Changed: true, Rule: rule}, nil
}

// Stats returns a snapshot of the counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Modules:   o.stats.modules.Load(),
		Changed:   o.stats.changed.Load(),
		CacheHits: o.stats.cacheHits.Load(),
		Elapsed:   time.Duration(o.stats.elapsed.Load()),
	}
}

func (o *Orchestrator) fingerprint() string {
	if o.Fingerprint != "" {
		return o.Fingerprint
	}
	return strings.Join(o.Rules.Names(), ",")
}

func (o *Orchestrator) reporter() diag.Reporter {
	if o.Reporter == nil {
		return diag.NopReporter{}
	}
	return o.Reporter
}

type countingReporter struct {
	next diag.Reporter
	n    atomic.Int32
}

func (r *countingReporter) Report(d diag.Diagnostic) {
	r.n.Add(1)
	r.next.Report(d)
}
