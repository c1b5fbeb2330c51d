package rewrite

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"distpack/internal/diag"
	"distpack/internal/edit"
	"distpack/internal/source"
)

// DefaultTemplateSignature is the visualizer module that reads its HTML
// templates from disk at runtime.
var DefaultTemplateSignature = regexp.MustCompile(`rollup-plugin-visualizer[/\\]dist[/\\]plugin[/\\]build-stats\.js$`)

var (
	templateCallRe   = regexp.MustCompile(`fs.*readFile.*\(__dirname,\s*(.+?)\)\s*,\s*"utf8"\s*\)`)
	templateQuotesRe = regexp.MustCompile("['\"`]+")
)

// TemplateAsset inlines the template files a third-party module reads via
// fs.readFile(path.join(__dirname, ..., `${template}...`), "utf8").
type TemplateAsset struct {
	Signature *regexp.Regexp
	// Template is the value of the ${template} variable; default "treemap".
	Template string
	FS       FileSystem
}

func (*TemplateAsset) Name() string { return "fix-visualizer" }

func (t *TemplateAsset) Match(id, _ string) bool {
	return cmp.Or(t.Signature, DefaultTemplateSignature).MatchString(id)
}

func (t *TemplateAsset) Rewrite(ctx context.Context, m *source.Module, rep diag.Reporter) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Unchanged, err
	}
	fsys := orOS(t.FS)
	template := cmp.Or(t.Template, "treemap")
	var (
		deps  []string
		lines source.LineIndex
	)
	out, n, err := edit.ReplaceAll(templateCallRe, m.Text, func(match edit.Match) (string, bool) {
		joined := templateQuotesRe.ReplaceAllString(match.Groups[1], "")
		joined = strings.ReplaceAll(joined, "${template}", template)
		path := resolveParts(m.Dir(), strings.Split(joined, ", "))
		deps = append(deps, path)
		data, err := fsys.ReadFile(path)
		if err != nil {
			if lines == nil {
				lines = source.NewLineIndex(m.Text)
			}
			diag.ReportWarning(rep, diag.RewriteTemplateRead,
				fmt.Sprintf("Failed to inline %s into %s:\n%s", path, m.ID, err.Error())).
				InModule(m.ID).
				At(lines.Position(match.Start)).
				FromStage(t.Name()).
				Emit()
			return RejectedLiteral(err.Error()), true
		}
		return ResolvedLiteral(string(data)), true
	})
	if err != nil {
		return Unchanged, fmt.Errorf("%s: %s: %w", t.Name(), m.ID, err)
	}
	if n == 0 {
		return Unchanged, nil
	}
	return Result{Code: out, Changed: true, Deps: deps}, nil
}

// resolveParts joins parts onto base; an absolute part restarts the path.
func resolveParts(base string, parts []string) string {
	p := base
	for _, part := range parts {
		part = filepath.FromSlash(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if filepath.IsAbs(part) {
			p = part
			continue
		}
		p = filepath.Join(p, part)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
