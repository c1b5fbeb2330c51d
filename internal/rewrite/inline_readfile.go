package rewrite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"distpack/internal/diag"
	"distpack/internal/edit"
	"distpack/internal/source"
)

// InlineMarker is the comment a module carries to opt into inlining.
const InlineMarker = "rollup-inline-files"

var (
	inlineMarkerRe = regexp.MustCompile(`//\s*` + regexp.QuoteMeta(InlineMarker))
	// fs.readFile(new URL('<rel>', __filename), 'utf-8') with any quote style
	inlineCallRe = regexp.MustCompile(`fs\.readFile\(new\s+URL\s*\(\s*(?:'(.+?)'|"(.+?)"|` + "`(.+?)`" + `)\s*,\s*__filename\s*\)\s*,\s*'utf-8'\s*\)`)
)

// InlineReadFile replaces module-relative fs.readFile calls with promises
// that already hold the file text, so the bundle needs no file next to it.
// Unreadable files become rejected promises plus a build warning.
type InlineReadFile struct {
	FS FileSystem
}

func (*InlineReadFile) Name() string { return "inline-fs-readfile" }

func (*InlineReadFile) Match(_, code string) bool {
	if !strings.Contains(code, InlineMarker) {
		return false
	}
	return inlineMarkerRe.MatchString(code)
}

func (r *InlineReadFile) Rewrite(ctx context.Context, m *source.Module, rep diag.Reporter) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Unchanged, err
	}
	fsys := orOS(r.FS)
	var (
		deps  []string
		lines source.LineIndex
	)
	out, n, err := edit.ReplaceAll(inlineCallRe, m.Text, func(match edit.Match) (string, bool) {
		filename := firstGroup(match.Groups[1:])
		path := source.Resolve(m.ID, filename)
		deps = append(deps, path)
		data, err := fsys.ReadFile(path)
		if err != nil {
			if lines == nil {
				lines = source.NewLineIndex(m.Text)
			}
			diag.ReportWarning(rep, diag.RewriteInlineRead,
				fmt.Sprintf("Failed to inline %s into %s:\n%s", filename, m.ID, err.Error())).
				InModule(m.ID).
				At(lines.Position(match.Start)).
				FromStage(r.Name()).
				Emit()
			return RejectedLiteral(err.Error()), true
		}
		return ResolvedLiteral(string(data)), true
	})
	if err != nil {
		return Unchanged, fmt.Errorf("%s: %s: %w", r.Name(), m.ID, err)
	}
	if n == 0 {
		return Unchanged, nil
	}
	return Result{Code: out, Changed: true, Deps: deps}, nil
}

func firstGroup(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}
