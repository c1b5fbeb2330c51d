package edit

import (
	"errors"
	"regexp"
	"testing"
)

func TestApply(t *testing.T) {
	text := "hello brave new world"
	got, err := Apply(text, []Edit{
		{Start: 16, End: 21, NewText: "place", OldText: "world"},
		{Start: 0, End: 5, NewText: "goodbye"},
		{Start: 6, End: 6, NewText: "very "},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if want := "goodbye very brave new place"; got != want {
		t.Fatalf("Apply = %q, want %q", got, want)
	}
}

func TestApplyErrors(t *testing.T) {
	text := "abcdef"
	tests := []struct {
		name  string
		edits []Edit
		want  error
	}{
		{"overlap", []Edit{{Start: 0, End: 3}, {Start: 2, End: 4}}, ErrConflict},
		{"insert inside", []Edit{{Start: 0, End: 4}, {Start: 2, End: 2}}, ErrConflict},
		{"range", []Edit{{Start: 4, End: 10}}, ErrOutOfRange},
		{"negative", []Edit{{Start: -1, End: 1}}, ErrOutOfRange},
		{"stale", []Edit{{Start: 0, End: 2, OldText: "xy"}}, ErrStale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(text, tt.edits)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got != text {
				t.Fatalf("text changed on error: %q", got)
			}
		})
	}
}

func TestAdjacentEditsDoNotConflict(t *testing.T) {
	got, err := Apply("aabb", []Edit{{Start: 0, End: 2, NewText: "x"}, {Start: 2, End: 4, NewText: "y"}, {Start: 2, End: 2, NewText: "-"}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != "x-y" {
		t.Fatalf("Apply = %q", got)
	}
}

func TestReplaceAll(t *testing.T) {
	re := regexp.MustCompile(`load\((\w+)\)`)
	text := "load(a); load(b); load(c);"
	got, n, err := ReplaceAll(re, text, func(m Match) (string, bool) {
		if m.Groups[1] == "b" {
			return "", false
		}
		return "<" + m.Groups[1] + ">", true
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if want := "<a>; load(b); <c>;"; got != want {
		t.Fatalf("ReplaceAll = %q, want %q", got, want)
	}
}

func TestFindAllUnmatchedGroup(t *testing.T) {
	re := regexp.MustCompile(`'([^']*)'|"([^"]*)"`)
	ms := FindAll(re, `'a' "b"`)
	if len(ms) != 2 {
		t.Fatalf("len = %d", len(ms))
	}
	if ms[0].Groups[1] != "a" || ms[0].Groups[2] != "" {
		t.Fatalf("first groups %q", ms[0].Groups)
	}
	if ms[1].Groups[1] != "" || ms[1].Groups[2] != "b" {
		t.Fatalf("second groups %q", ms[1].Groups)
	}
}
