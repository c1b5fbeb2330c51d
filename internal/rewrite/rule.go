// Package rewrite holds the pattern-gated source rewriters. Each rule is
// gated to a disjoint module signature and is a no-op everywhere else.
package rewrite

import (
	"context"
	"io/fs"
	"os"

	"distpack/internal/diag"
	"distpack/internal/source"
)

// Rule is one named rewrite stage.
type Rule interface {
	// Name identifies the stage in diagnostics and logs.
	Name() string
	// Match is the side-effect free gate. It must be cheap: it runs for
	// every module the host loads.
	Match(id, code string) bool
	// Rewrite returns the new text of m. It must not modify m.
	Rewrite(ctx context.Context, m *source.Module, r diag.Reporter) (Result, error)
}

// Result is the outcome of one rewrite. Changed == false means the module
// is passed through verbatim and Code is ignored.
type Result struct {
	Code    string
	Changed bool
	// Deps lists the files read while producing Code.
	Deps []string
	// Volatile marks output that depends on a directory listing and must
	// not be cached.
	Volatile bool
}

// Unchanged is the no-match result.
var Unchanged = Result{}

// FileSystem is the build-time filesystem the rules read from.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	ReadDir(name string) ([]fs.DirEntry, error)
}

// OSFileSystem reads from the host filesystem.
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- paths come from modules being bundled
	return os.ReadFile(name)
}

func (OSFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func orOS(fsys FileSystem) FileSystem {
	if fsys == nil {
		return OSFileSystem{}
	}
	return fsys
}

// Registry is the ordered list of rules offered every module.
type Registry []Rule

// Options configures the built-in rules.
type Options struct {
	// Template is substituted for ${template} in visualizer asset paths.
	Template string
	// PlatformsDir is the directory listed by the platform dispatch rule;
	// empty means the dispatching module's own directory.
	PlatformsDir string
	// PlatformExt is the extension of platform implementation files.
	PlatformExt string
	// ShimSpecifier is the optional syntax extension that is shimmed out.
	ShimSpecifier string
	FS            FileSystem
}

// DefaultRegistry returns the built-in rules in their fixed order.
func DefaultRegistry(opts Options) Registry {
	return Registry{
		&InlineReadFile{FS: opts.FS},
		&PlatformDispatch{Dir: opts.PlatformsDir, Ext: opts.PlatformExt, FS: opts.FS},
		&TemplateAsset{Template: opts.Template, FS: opts.FS},
		&SyntaxShim{Specifier: opts.ShimSpecifier},
	}
}

// Names lists rule names in order.
func (r Registry) Names() []string {
	out := make([]string, len(r))
	for i, rule := range r {
		out[i] = rule.Name()
	}
	return out
}

// Apply offers m to each matching rule in order. The first rule whose
// result is Changed wins and later rules are not consulted. The winning
// rule's name is returned alongside its result.
func (r Registry) Apply(ctx context.Context, m *source.Module, rep diag.Reporter) (Result, string, error) {
	for _, rule := range r {
		if !rule.Match(m.ID, m.Text) {
			continue
		}
		res, err := rule.Rewrite(ctx, m, rep)
		if err != nil {
			return Unchanged, rule.Name(), err
		}
		if res.Changed {
			return res, rule.Name(), nil
		}
	}
	return Unchanged, "", nil
}
