package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestModuleReplace(t *testing.T) {
	m := NewModule("pkg/index.js", "a")
	if m.Changed() {
		t.Fatal("fresh module must not be changed")
	}
	m.Replace("b")
	if !m.Changed() {
		t.Fatal("expected module to be changed after Replace")
	}
	if m.Raw != "a" {
		t.Fatalf("raw text mutated: %q", m.Raw)
	}
	m.Replace("a")
	if m.Changed() {
		t.Fatal("restoring raw text should clear Changed")
	}
}

func TestLoadKeepsBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.js")
	content := "\ufeffline1\r\nline2\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Text != content {
		t.Fatalf("Load changed content: %q", m.Text)
	}
	if m.ID != filepath.ToSlash(path) {
		t.Fatalf("unexpected id %q", m.ID)
	}
}

func TestPosition(t *testing.T) {
	text := "ab\ncd\n\nef"
	tests := []struct {
		off  int
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{1, LineCol{1, 2}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{4, LineCol{2, 2}},
		{6, LineCol{3, 1}},
		{7, LineCol{4, 1}},
		{8, LineCol{4, 2}},
	}
	idx := NewLineIndex(text)
	for _, tt := range tests {
		if got := idx.Position(tt.off); got != tt.want {
			t.Errorf("Position(%d) = %+v, want %+v", tt.off, got, tt.want)
		}
	}
}

func TestHashSeparatesParts(t *testing.T) {
	if Hash("ab", "c") == Hash("a", "bc") {
		t.Fatal("hash must depend on part boundaries")
	}
	if Hash("x") != Hash("x") {
		t.Fatal("hash must be deterministic")
	}
}

func TestNormalizeID(t *testing.T) {
	// "é" as e + combining acute accent
	decomposed := "pkg/cafe\u0301/index.js"
	if got := NormalizeID(decomposed); got != "pkg/caf\u00e9/index.js" {
		t.Fatalf("NormalizeID = %q", got)
	}
	if got := NormalizeID("a/./b/../c.js"); got != "a/c.js" {
		t.Fatalf("NormalizeID = %q", got)
	}
}

func TestRelativePath(t *testing.T) {
	base := filepath.Join("root", "proj")
	if got := RelativePath(filepath.Join(base, "src", "a.js"), base); got != "src/a.js" {
		t.Fatalf("RelativePath = %q", got)
	}
	outside := filepath.Join("elsewhere", "a.js")
	if got := RelativePath(outside, base); got != outside {
		t.Fatalf("RelativePath outside = %q", got)
	}
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	id := filepath.Join(base, "pkg", "index.js")
	other := filepath.Join(t.TempDir(), "data.txt")
	tests := []struct {
		name  string
		elems []string
		want  string
	}{
		{"relative", []string{"./data.txt"}, filepath.Join(base, "pkg", "data.txt")},
		{"parent", []string{"..", "assets", "a.txt"}, filepath.Join(base, "assets", "a.txt")},
		{"absolute restarts", []string{filepath.ToSlash(other)}, other},
		{"absolute then relative", []string{"ignored", filepath.Dir(other), "b.txt"}, filepath.Join(filepath.Dir(other), "b.txt")},
	}
	for _, tt := range tests {
		if got := Resolve(id, tt.elems...); got != tt.want {
			t.Errorf("%s: Resolve = %q, want %q", tt.name, got, tt.want)
		}
	}
}
