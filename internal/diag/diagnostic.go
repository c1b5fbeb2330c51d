package diag

import (
	"fmt"

	"distpack/internal/source"
)

type Note struct {
	Msg string
}

// Diagnostic is a single build finding. Module is empty for findings that
// concern a whole chunk or the build; Pos is zero when no position is known.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Stage    string
	Module   string
	Pos      source.LineCol
	Notes    []Note
}

// Location renders module[:line:col] for display.
func (d Diagnostic) Location() string {
	if d.Module == "" {
		return ""
	}
	if d.Pos.Line == 0 {
		return d.Module
	}
	return fmt.Sprintf("%s:%d:%d", d.Module, d.Pos.Line, d.Pos.Col)
}
