package diagfmt

import (
	"encoding/json"
	"io"

	"distpack/internal/diag"
)

// LocationJSON is a module position.
type LocationJSON struct {
	Module string `json:"module"`
	Line   uint32 `json:"line,omitempty"`
	Col    uint32 `json:"col,omitempty"`
}

// DiagnosticJSON is one diagnostic in JSON output.
type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Stage    string        `json:"stage,omitempty"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []string      `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root of JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
}

// BuildDiagnosticsOutput builds the JSON structure without serialising it.
func BuildDiagnosticsOutput(bag *diag.Bag, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}
	diagnostics := make([]DiagnosticJSON, 0, maxItems)
	for i := range maxItems {
		d := items[i]
		out := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Stage:    d.Stage,
		}
		if d.Module != "" {
			loc := &LocationJSON{Module: formatPath(d.Module, opts.PathMode, opts.BaseDir)}
			if opts.IncludePositions {
				loc.Line = d.Pos.Line
				loc.Col = d.Pos.Col
			}
			out.Location = loc
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			out.Notes = make([]string, len(d.Notes))
			for j, n := range d.Notes {
				out.Notes[j] = n.Msg
			}
		}
		diagnostics = append(diagnostics, out)
	}
	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
		Errors:      bag.Count(diag.SevError),
		Warnings:    bag.Count(diag.SevWarning),
	}
}

// JSON writes bag as indented JSON.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, opts))
}
