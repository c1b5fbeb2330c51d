package rewrite

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"distpack/internal/alias"
	"distpack/internal/diag"
	"distpack/internal/edit"
	"distpack/internal/source"
)

// DefaultShimSpecifier is the optional syntax plugin the build never uses.
const DefaultShimSpecifier = "@babel/plugin-syntax-jsx"

// SyntaxShim points references to an unused syntax extension at the inert
// empty stand-in so its parser machinery stays out of the bundle.
type SyntaxShim struct {
	Specifier string
	// Replacement defaults to the empty stand-in.
	Replacement string

	once sync.Once
	re   *regexp.Regexp
}

func (*SyntaxShim) Name() string { return "disable-syntax-jsx" }

func (s *SyntaxShim) specifier() string { return cmp.Or(s.Specifier, DefaultShimSpecifier) }

func (s *SyntaxShim) pattern() *regexp.Regexp {
	s.once.Do(func() {
		s.re = regexp.MustCompile(`(require\s*\(\s*|import\s*\(\s*|\bfrom\s*)(['"])` + regexp.QuoteMeta(s.specifier()) + `['"]`)
	})
	return s.re
}

func (s *SyntaxShim) Match(_, code string) bool {
	return strings.Contains(code, s.specifier()) && s.pattern().MatchString(code)
}

func (s *SyntaxShim) Rewrite(ctx context.Context, m *source.Module, _ diag.Reporter) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Unchanged, err
	}
	replacement := cmp.Or(s.Replacement, alias.EmptyModule)
	out, n, err := edit.ReplaceAll(s.pattern(), m.Text, func(match edit.Match) (string, bool) {
		quote := match.Groups[2]
		return match.Groups[1] + quote + replacement + quote, true
	})
	if err != nil {
		return Unchanged, fmt.Errorf("%s: %s: %w", s.Name(), m.ID, err)
	}
	if n == 0 {
		return Unchanged, nil
	}
	return Result{Code: out, Changed: true}, nil
}
