// Package alias implements the static specifier substitution table that is
// consulted before the host bundler resolves an import.
package alias

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// Kind selects how Entry.Find is matched against a specifier.
type Kind string

const (
	// KindExact matches the whole specifier, or the specifier followed by a sub-path.
	KindExact Kind = "exact"
	// KindPrefix matches and replaces a leading substring.
	KindPrefix Kind = "prefix"
	// KindSuffix matches and replaces a trailing substring.
	KindSuffix Kind = "suffix"
	// KindRegexp replaces the first RE2 match; $1 references are expanded.
	KindRegexp Kind = "regexp"
	// KindGlob matches the whole specifier against a glob and replaces it.
	KindGlob Kind = "glob"
)

// ParseKind converts a manifest spelling into a Kind. Empty means exact.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindExact, nil
	case KindExact, KindPrefix, KindSuffix, KindRegexp, KindGlob:
		return k, nil
	}
	return "", fmt.Errorf("unknown alias kind %q (expected exact|prefix|suffix|regexp|glob)", s)
}

// Entry is one row of the table.
type Entry struct {
	Find        string
	Kind        Kind
	Replacement string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %q -> %q", e.Kind, e.Find, e.Replacement)
}

type matcher struct {
	entry Entry
	re    *regexp.Regexp
	g     glob.Glob
}

func compile(e Entry) (matcher, error) {
	if e.Kind == "" {
		e.Kind = KindExact
	}
	m := matcher{entry: e}
	switch e.Kind {
	case KindExact, KindPrefix, KindSuffix:
		if e.Find == "" {
			return m, fmt.Errorf("alias %s: empty pattern", e.Kind)
		}
	case KindRegexp:
		re, err := regexp.Compile(e.Find)
		if err != nil {
			return m, fmt.Errorf("alias regexp %q: %w", e.Find, err)
		}
		m.re = re
	case KindGlob:
		g, err := glob.Compile(e.Find, '/')
		if err != nil {
			return m, fmt.Errorf("alias glob %q: %w", e.Find, err)
		}
		m.g = g
	default:
		return m, fmt.Errorf("unknown alias kind %q", e.Kind)
	}
	return m, nil
}

// apply returns the substituted specifier. A stand-in replacement always
// replaces the whole specifier, whatever part of it the pattern matched.
func (m matcher) apply(spec string) (string, bool) {
	e := m.entry
	if strings.HasPrefix(e.Replacement, StubPrefix) {
		if _, ok := m.match(spec); ok {
			return e.Replacement, true
		}
		return spec, false
	}
	return m.match(spec)
}

func (m matcher) match(spec string) (string, bool) {
	e := m.entry
	switch e.Kind {
	case KindExact:
		if spec == e.Find {
			return e.Replacement, true
		}
		if rest, ok := strings.CutPrefix(spec, e.Find+"/"); ok {
			return e.Replacement + "/" + rest, true
		}
	case KindPrefix:
		if rest, ok := strings.CutPrefix(spec, e.Find); ok {
			return e.Replacement + rest, true
		}
	case KindSuffix:
		if head, ok := strings.CutSuffix(spec, e.Find); ok {
			return head + e.Replacement, true
		}
	case KindRegexp:
		loc := m.re.FindStringSubmatchIndex(spec)
		if loc == nil {
			return spec, false
		}
		var dst []byte
		dst = m.re.ExpandString(dst, e.Replacement, spec, loc)
		return spec[:loc[0]] + string(dst) + spec[loc[1]:], true
	case KindGlob:
		if m.g.Match(spec) {
			return e.Replacement, true
		}
	}
	return spec, false
}

// Table is an ordered, immutable list of alias entries.
type Table struct {
	matchers []matcher
}

// NewTable compiles the entries in order. An invalid pattern is an error:
// it is a configuration problem detectable before any module is loaded.
func NewTable(entries ...Entry) (*Table, error) {
	t := &Table{matchers: make([]matcher, 0, len(entries))}
	for i, e := range entries {
		m, err := compile(e)
		if err != nil {
			return nil, fmt.Errorf("alias entry %d: %w", i, err)
		}
		t.matchers = append(t.matchers, m)
	}
	return t, nil
}

// MustTable is NewTable that panics on error; for built-in tables.
func MustTable(entries ...Entry) *Table {
	t, err := NewTable(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve returns the substitute for spec. The first matching entry wins;
// when nothing matches spec is returned unchanged with ok == false.
func (t *Table) Resolve(spec string) (string, bool) {
	if t == nil {
		return spec, false
	}
	for _, m := range t.matchers {
		if out, ok := m.apply(spec); ok {
			return out, true
		}
	}
	return spec, false
}

// Lookup is Resolve that also reports which entry matched.
func (t *Table) Lookup(spec string) (string, Entry, bool) {
	if t == nil {
		return spec, Entry{}, false
	}
	for _, m := range t.matchers {
		if out, ok := m.apply(spec); ok {
			return out, m.entry, true
		}
	}
	return spec, Entry{}, false
}

// Entries returns a copy of the table in order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.matchers))
	for i, m := range t.matchers {
		out[i] = m.entry
	}
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.matchers)
}

// Extend returns a new table with extra entries appended after t's.
func (t *Table) Extend(entries ...Entry) (*Table, error) {
	return NewTable(append(t.Entries(), entries...)...)
}
