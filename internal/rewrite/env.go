package rewrite

import (
	"regexp"
	"sort"
	"strings"

	"distpack/internal/edit"
)

// EnvReplace substitutes build-time constants for tokens such as
// process.env.VERSION in every module before the rules run. Values are
// inserted as string literals.
type EnvReplace struct {
	values map[string]string
	re     *regexp.Regexp
}

// NewEnvReplace builds the substitution for token -> value.
func NewEnvReplace(values map[string]string) *EnvReplace {
	if len(values) == 0 {
		return &EnvReplace{}
	}
	tokens := make([]string, 0, len(values))
	copied := make(map[string]string, len(values))
	for tok, v := range values {
		if tok == "" {
			continue
		}
		tokens = append(tokens, tok)
		copied[tok] = jsString(v)
	}
	// longest first so process.env.VERSION_TAG wins over process.env.VERSION
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	return &EnvReplace{
		values: copied,
		re:     regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Tokens returns the configured tokens, sorted.
func (e *EnvReplace) Tokens() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.values))
	for tok := range e.values {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// Apply returns code with every token replaced. A token followed by '.'
// is a longer member expression and is left alone.
func (e *EnvReplace) Apply(code string) (string, bool) {
	if e == nil || e.re == nil {
		return code, false
	}
	out, n, err := edit.ReplaceAll(e.re, code, func(m edit.Match) (string, bool) {
		if m.End < len(code) && code[m.End] == '.' {
			return "", false
		}
		return e.values[m.Groups[0]], true
	})
	if err != nil || n == 0 {
		return code, false
	}
	return out, true
}
