package pipeline

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"distpack/internal/logging"
)

const nodeModules = "node_modules/"

// PackageOf returns the npm package a bundled input belongs to, or "" for
// project files. Nested node_modules resolve to the innermost package.
func PackageOf(input string) string {
	p := strings.ReplaceAll(input, `\`, "/")
	i := strings.LastIndex(p, nodeModules)
	if i < 0 {
		return ""
	}
	rest := p[i+len(nodeModules):]
	parts := strings.SplitN(rest, "/", 3)
	if parts[0] == "" {
		return ""
	}
	if strings.HasPrefix(parts[0], "@") {
		if len(parts) < 2 || parts[1] == "" {
			return ""
		}
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// DependencyLog lists the packages that ended up in one target's bundle.
type DependencyLog struct {
	Target   string
	Packages []string
	// Modules counts bundled inputs per package.
	Modules map[string]int
}

// NewDependencyLog groups bundled inputs by package.
func NewDependencyLog(target string, inputs []string) DependencyLog {
	log := DependencyLog{Target: target, Modules: make(map[string]int)}
	for _, in := range inputs {
		pkg := PackageOf(in)
		if pkg == "" {
			continue
		}
		if log.Modules[pkg] == 0 {
			log.Packages = append(log.Packages, pkg)
		}
		log.Modules[pkg]++
	}
	slices.Sort(log.Packages)
	return log
}

// Emit writes the log through the build logger at info level.
func (d DependencyLog) Emit() {
	l := logging.Logger().With(zap.String("target", d.Target))
	l.Info("bundled packages", zap.Int("count", len(d.Packages)))
	for _, pkg := range d.Packages {
		l.Info("package", zap.String("name", pkg), zap.Int("modules", d.Modules[pkg]))
	}
}
