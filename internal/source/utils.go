package source

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeID returns the canonical form of a module id: cleaned, slash
// separated and NFC normalised so path signatures match regardless of how
// the filesystem spelled the name.
func NormalizeID(id string) string {
	if id == "" {
		return ""
	}
	return norm.NFC.String(filepath.ToSlash(filepath.Clean(id)))
}

// Dir returns the directory of a module id in OS form.
func Dir(id string) string {
	return filepath.Dir(filepath.FromSlash(id))
}

// Resolve joins path elements onto the directory of the module id. An
// absolute element restarts the path.
func Resolve(id string, elems ...string) string {
	p := Dir(id)
	for _, e := range elems {
		e = filepath.FromSlash(e)
		if filepath.IsAbs(e) {
			p = e
			continue
		}
		p = filepath.Join(p, e)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// RelativePath returns path relative to baseDir, or path itself when it
// escapes baseDir.
func RelativePath(path, baseDir string) string {
	if baseDir == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
