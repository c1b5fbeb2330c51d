package source

// Digest is a fixed 256-bit content hash.
type Digest [32]byte

// LineCol represents a human-readable position in module text.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}

// Module is one unit of source code as seen by the host bundler.
//
// Raw holds the text the host loaded; Text is the current text after the
// rewrite stages that have run so far. Text only changes through Replace.
type Module struct {
	ID   string
	Raw  string
	Text string
}

// NewModule returns a module whose current text equals its raw text.
func NewModule(id, raw string) *Module {
	return &Module{ID: id, Raw: raw, Text: raw}
}

// Replace swaps the current text.
func (m *Module) Replace(text string) {
	m.Text = text
}

// Changed reports whether any stage replaced the raw text.
func (m *Module) Changed() bool {
	return m.Text != m.Raw
}

// Dir returns the directory containing the module.
func (m *Module) Dir() string {
	return Dir(m.ID)
}
