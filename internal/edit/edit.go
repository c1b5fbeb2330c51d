// Package edit applies byte-offset text edits to module source.
package edit

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrConflict is returned when two edits overlap.
	ErrConflict = errors.New("edit: overlapping edits")
	// ErrOutOfRange is returned when an edit span lies outside the text.
	ErrOutOfRange = errors.New("edit: span out of range")
	// ErrStale is returned when OldText does not match the text under the span.
	ErrStale = errors.New("edit: existing text does not match")
)

// Edit replaces text[Start:End] with NewText. OldText, when set, guards the
// edit against being applied to text that has changed underneath it.
type Edit struct {
	Start   int
	End     int
	NewText string
	OldText string
}

// Apply returns text with all edits applied. Edits are given in original
// text coordinates and must not overlap.
func Apply(text string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return text, nil
	}
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(text) {
			return text, fmt.Errorf("%w: [%d,%d) in %d bytes", ErrOutOfRange, e.Start, e.End, len(text))
		}
		if i > 0 && spansConflict(sorted[i-1], e) {
			return text, fmt.Errorf("%w: [%d,%d) and [%d,%d)", ErrConflict, sorted[i-1].Start, sorted[i-1].End, e.Start, e.End)
		}
		if e.OldText != "" && text[e.Start:e.End] != e.OldText {
			return text, fmt.Errorf("%w at [%d,%d)", ErrStale, e.Start, e.End)
		}
		b.WriteString(text[pos:e.Start])
		b.WriteString(e.NewText)
		pos = e.End
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}

// spansConflict reports whether two edits' spans overlap.
// Spans are half-open intervals [Start, End). Two zero-length edits never
// conflict; a zero-length edit conflicts with a span strictly containing it.
func spansConflict(a, b Edit) bool {
	if a.Start == a.End && b.Start == b.End {
		return false
	}
	if a.Start == a.End {
		return b.Start < a.Start && a.Start < b.End
	}
	if b.Start == b.End {
		return a.Start < b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// Match is one regexp match: the full span plus submatch strings.
type Match struct {
	Start, End int
	Groups     []string // Groups[0] is the whole match; unmatched groups are ""
}

// FindAll returns every non-overlapping match of re in text, left to right.
func FindAll(re *regexp.Regexp, text string) []Match {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		m := Match{Start: loc[0], End: loc[1], Groups: make([]string, len(loc)/2)}
		for g := 0; g < len(loc)/2; g++ {
			if loc[2*g] >= 0 {
				m.Groups[g] = text[loc[2*g]:loc[2*g+1]]
			}
		}
		out = append(out, m)
	}
	return out
}

// ReplaceAll builds one edit per match of re using fn and applies them.
// fn receives matches in text order; returning ok == false keeps the match
// as is. The result reports how many edits were applied.
func ReplaceAll(re *regexp.Regexp, text string, fn func(m Match) (string, bool)) (string, int, error) {
	matches := FindAll(re, text)
	if len(matches) == 0 {
		return text, 0, nil
	}
	edits := make([]Edit, 0, len(matches))
	for _, m := range matches {
		repl, ok := fn(m)
		if !ok {
			continue
		}
		edits = append(edits, Edit{Start: m.Start, End: m.End, NewText: repl, OldText: m.Groups[0]})
	}
	out, err := Apply(text, edits)
	if err != nil {
		return text, 0, err
	}
	return out, len(edits), nil
}
