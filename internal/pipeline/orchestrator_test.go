package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"distpack/internal/alias"
	"distpack/internal/cache"
	"distpack/internal/diag"
	"distpack/internal/rewrite"
	"distpack/internal/source"
)

func newOrchestrator(t *testing.T, bag *diag.Bag) *Orchestrator {
	t.Helper()
	store, err := cache.Open("")
	if err != nil {
		t.Fatal(err)
	}
	return &Orchestrator{
		Aliases:  alias.MustTable(alias.Default(string(filepath.Separator))...),
		Env:      rewrite.NewEnvReplace(map[string]string{"process.env.VERSION": "1.0.0"}),
		Rules:    rewrite.DefaultRegistry(rewrite.Options{}),
		Cache:    store,
		Reporter: diag.BagReporter{Bag: bag},
	}
}

func TestTransformUnmarkedModuleUnchanged(t *testing.T) {
	o := newOrchestrator(t, diag.NewBag(0))
	code := "const t = fs.readFile(new URL('./data.txt', __filename), 'utf-8');"
	out, err := o.Transform(context.Background(), "/pkg/index.js", code)
	if err != nil {
		t.Fatal(err)
	}
	if out.Changed {
		t.Fatalf("unmarked module changed: %q", out.Code)
	}
}

func TestTransformInlinesMarkedModule(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "data.txt"), []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	o := newOrchestrator(t, diag.NewBag(0))
	id := filepath.Join(dir, "index.js")
	code := "// rollup-inline-files\nexport const v = process.env.VERSION;\nconst t = fs.readFile(new URL('./data.txt', __filename), 'utf-8');\n"

	out, err := o.Transform(context.Background(), id, code)
	if err != nil {
		t.Fatal(err)
	}
	want := "// rollup-inline-files\nexport const v = \"1.0.0\";\nconst t = Promise.resolve(\"hello\");\n"
	if diff := cmp.Diff(want, out.Code); diff != "" {
		t.Fatalf("code mismatch (-want +got):\n%s", diff)
	}
	if out.Rule != "inline-fs-readfile" || out.Cached {
		t.Fatalf("unexpected output: %+v", out)
	}

	again, err := o.Transform(context.Background(), id, code)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Cached || again.Code != out.Code {
		t.Fatalf("second transform should hit the cache: %+v", again)
	}
	if got := o.Stats(); got.Modules != 2 || got.CacheHits != 1 || got.Changed != 2 {
		t.Fatalf("stats = %+v", got)
	}
}

func TestTransformDoesNotCacheWarnings(t *testing.T) {
	dir := t.TempDir()
	bag := diag.NewBag(0)
	o := newOrchestrator(t, bag)
	id := filepath.Join(dir, "index.js")
	code := "// rollup-inline-files\nfs.readFile(new URL('./gone.txt', __filename), 'utf-8');\n"
	for range 2 {
		out, err := o.Transform(context.Background(), id, code)
		if err != nil {
			t.Fatal(err)
		}
		if out.Cached {
			t.Fatal("a result that warned must not be served from cache")
		}
	}
	if got := bag.Count(diag.SevWarning); got != 2 {
		t.Fatalf("each build must warn again, got %d", got)
	}
}

func TestTransformEnvOnly(t *testing.T) {
	o := newOrchestrator(t, diag.NewBag(0))
	out, err := o.Transform(context.Background(), "/a.js", "console.log(process.env.VERSION)")
	if err != nil {
		t.Fatal(err)
	}
	if !out.Changed || out.Code != `console.log("1.0.0")` || out.Rule != "" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

type failingRule struct{}

func (failingRule) Name() string { return "broken" }
func (failingRule) Match(string, string) bool { return true }
func (failingRule) Rewrite(context.Context, *source.Module, diag.Reporter) (rewrite.Result, error) {
	return rewrite.Unchanged, errors.New("boom")
}

func TestTransformRuleError(t *testing.T) {
	bag := diag.NewBag(0)
	o := &Orchestrator{Rules: rewrite.Registry{failingRule{}}, Reporter: diag.BagReporter{Bag: bag}}
	if _, err := o.Transform(context.Background(), "/a.js", "x"); err == nil {
		t.Fatal("expected error")
	}
	if !bag.HasErrors() {
		t.Fatal("rule failure must be reported")
	}
}

func TestResolve(t *testing.T) {
	o := newOrchestrator(t, diag.NewBag(0))
	if got, ok := o.Resolve("postcss"); !ok || got != "postcss-es6" {
		t.Fatalf("Resolve(postcss) = %q, %v", got, ok)
	}
	if got, ok := o.Resolve("react"); ok || got != "react" {
		t.Fatalf("Resolve(react) = %q, %v", got, ok)
	}
	var nilOrch *Orchestrator
	if got, ok := nilOrch.Resolve("x"); ok || got != "x" {
		t.Fatal("nil orchestrator must pass specifiers through")
	}
}

func TestTransformConcurrent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "data.txt"), []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}
	o := newOrchestrator(t, diag.NewBag(0))
	id := filepath.Join(dir, "index.js")
	code := "// rollup-inline-files\nfs.readFile(new URL('./data.txt', __filename), 'utf-8');"

	var wg sync.WaitGroup
	var bad atomic.Int32
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := o.Transform(context.Background(), id, code)
			if err != nil || out.Code != "// rollup-inline-files\nPromise.resolve(\"hi\");" {
				bad.Add(1)
			}
		}()
	}
	wg.Wait()
	if bad.Load() != 0 {
		t.Fatalf("%d concurrent transforms disagreed", bad.Load())
	}
}
