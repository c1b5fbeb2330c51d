package host

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Metafile is esbuild's metafile JSON.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput is one input file.
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
	Format  string           `json:"format,omitempty"`
}

// MetafileImport is one import edge.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// MetafileOutput is one output file.
type MetafileOutput struct {
	Bytes      int                     `json:"bytes"`
	Inputs     map[string]InputContrib `json:"inputs"`
	Imports    []MetafileImport        `json:"imports"`
	Exports    []string                `json:"exports"`
	EntryPoint string                  `json:"entryPoint,omitempty"`
}

// InputContrib is the share of an input in an output.
type InputContrib struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// ParseMetafile decodes esbuild's metafile string.
func ParseMetafile(raw string) (*Metafile, error) {
	if raw == "" {
		return &Metafile{}, nil
	}
	var m Metafile
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("metafile: %w", err)
	}
	return &m, nil
}

// InputPaths lists the bundled inputs, sorted. Stub modules are included
// with their namespace prefix.
func (m *Metafile) InputPaths() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.Inputs))
	for p := range m.Inputs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Externals lists the distinct external imports left in the bundle.
func (m *Metafile) Externals() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, in := range m.Inputs {
		for _, imp := range in.Imports {
			if imp.External {
				seen[imp.Path] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
