// Package diagfmt renders build diagnostics for terminals and tools.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"distpack/internal/diag"
)

type palette struct {
	err, warn, info, code, path, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan, color.Bold),
		code: color.New(color.Faint),
		path: color.New(color.Bold),
		note: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.path, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes bag in human-readable form, one headline per diagnostic:
//
//	<module>:<line>:<col>: <SEV> <CODE>: <first message line>
//
// followed by the remaining message lines and notes, indented.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if err := prettyOne(w, p, d, opts); err != nil {
			return err
		}
	}
	if opts.Summary {
		errs, warns := bag.Count(diag.SevError), bag.Count(diag.SevWarning)
		if errs+warns > 0 {
			if _, err := fmt.Fprintf(w, "%s, %s\n",
				p.err.Sprint(plural(errs, "error")),
				p.warn.Sprint(plural(warns, "warning"))); err != nil {
				return err
			}
		}
	}
	return nil
}

func prettyOne(w io.Writer, p palette, d diag.Diagnostic, opts PrettyOpts) error {
	var b strings.Builder
	if loc := location(d, opts.PathMode, opts.BaseDir); loc != "" {
		b.WriteString(p.path.Sprint(loc))
		b.WriteString(": ")
	}
	head, rest, _ := strings.Cut(d.Message, "\n")
	b.WriteString(p.severity(d.Severity).Sprint(d.Severity.String()))
	b.WriteByte(' ')
	b.WriteString(p.code.Sprint(d.Code.ID()))
	b.WriteString(": ")
	b.WriteString(head)
	if opts.ShowStage && d.Stage != "" {
		b.WriteString(p.code.Sprintf(" [%s]", d.Stage))
	}
	b.WriteByte('\n')
	if rest != "" {
		for _, line := range strings.Split(rest, "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if opts.ShowNotes {
		for _, n := range d.Notes {
			b.WriteString("  ")
			b.WriteString(p.note.Sprint("note:"))
			b.WriteByte(' ')
			b.WriteString(n.Msg)
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func location(d diag.Diagnostic, mode PathMode, baseDir string) string {
	path := formatPath(d.Module, mode, baseDir)
	if path == "" {
		return ""
	}
	if d.Pos.Line == 0 {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, d.Pos.Line, d.Pos.Col)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
