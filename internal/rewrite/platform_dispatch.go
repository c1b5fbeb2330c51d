package rewrite

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"distpack/internal/diag"
	"distpack/internal/source"
)

// DefaultPlatformSignature is the module that picks its platform
// implementation with a computed require.
var DefaultPlatformSignature = regexp.MustCompile(`devcert[/\\]dist[/\\]platforms[/\\]index\.js$`)

// DefaultPlatformExpr is the dynamic dispatch expression that is replaced.
const DefaultPlatformExpr = "require(`./${process.platform}`)"

// PlatformDispatch turns a require keyed by process.platform into a lookup
// in a static table of every platform file found next to the module, so
// the bundler can follow each require.
type PlatformDispatch struct {
	Signature *regexp.Regexp
	// Dir is listed on every call; empty means the module's directory.
	Dir string
	// Ext selects platform files; default ".js".
	Ext string
	// Aggregator is the stem excluded from the table; default "index".
	Aggregator string
	// Expr is the dispatch expression; Key is the runtime discriminant.
	Expr string
	Key  string
	FS   FileSystem
}

func (*PlatformDispatch) Name() string { return "fix-devcert" }

func (p *PlatformDispatch) signature() *regexp.Regexp {
	if p.Signature != nil {
		return p.Signature
	}
	return DefaultPlatformSignature
}

func (p *PlatformDispatch) Match(id, _ string) bool {
	return p.signature().MatchString(id)
}

func (p *PlatformDispatch) Rewrite(ctx context.Context, m *source.Module, rep diag.Reporter) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Unchanged, err
	}
	expr := cmp.Or(p.Expr, DefaultPlatformExpr)
	if !strings.Contains(m.Text, expr) {
		return Unchanged, nil
	}
	moduleDir := m.Dir()
	dir := cmp.Or(p.Dir, moduleDir)

	table, err := p.table(moduleDir, dir)
	if err != nil {
		diag.ReportWarning(rep, diag.RewritePlatformListing,
			fmt.Sprintf("Failed to list platforms for %s:\n%s", m.ID, err.Error())).
			InModule(m.ID).
			FromStage(p.Name()).
			Emit()
		return Unchanged, nil
	}
	lookup := "(" + table + ")[" + cmp.Or(p.Key, "process.platform") + "]"
	return Result{
		Code:     strings.ReplaceAll(m.Text, expr, lookup),
		Changed:  true,
		Deps:     []string{dir},
		Volatile: true,
	}, nil
}

// table renders {"name": require("./file"),...} for every platform file in
// dir, in directory order. An empty directory yields {}.
func (p *PlatformDispatch) table(moduleDir, dir string) (string, error) {
	entries, err := orOS(p.FS).ReadDir(dir)
	if err != nil {
		return "", err
	}
	ext := cmp.Or(p.Ext, ".js")
	aggregator := cmp.Or(p.Aggregator, "index")

	var b strings.Builder
	b.WriteByte('{')
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		file := e.Name()
		name, ok := strings.CutSuffix(file, ext)
		if !ok || name == "" || name == aggregator {
			continue
		}
		if n > 0 {
			b.WriteByte(',')
		}
		b.WriteString(jsString(name))
		b.WriteString(": require(")
		b.WriteString(jsString(requirePath(moduleDir, filepath.Join(dir, file))))
		b.WriteByte(')')
		n++
	}
	b.WriteByte('}')
	return b.String(), nil
}

// requirePath is the relative specifier from moduleDir to target.
func requirePath(moduleDir, target string) string {
	rel, err := filepath.Rel(moduleDir, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}
