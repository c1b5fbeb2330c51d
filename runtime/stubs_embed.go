// Package runtimeembed provides the embedded stand-in modules that alias
// entries can point at instead of a real dependency.
package runtimeembed

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed stubs/*.js
var stubFS embed.FS

// StubFS exposes the embedded stand-ins, one <name>.js per stub.
func StubFS() fs.FS {
	sub, err := fs.Sub(stubFS, "stubs")
	if err != nil {
		panic(err)
	}
	return sub
}

// Stub returns the source of the named stand-in.
func Stub(name string) (string, error) {
	name = strings.TrimSuffix(name, ".js")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid stub name %q", name)
	}
	data, err := fs.ReadFile(stubFS, path.Join("stubs", name+".js"))
	if err != nil {
		return "", fmt.Errorf("unknown stub %q: %w", name, err)
	}
	return string(data), nil
}

// StubNames lists the available stand-ins, sorted.
func StubNames() []string {
	entries, err := fs.ReadDir(stubFS, "stubs")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".js"))
	}
	sort.Strings(names)
	return names
}
