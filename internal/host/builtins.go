package host

import (
	"sort"
	"strings"
)

// nodeBuiltinModules contains the top-level Node.js core modules, as listed
// by module.builtinModules without private names and sub-paths.
var nodeBuiltinModules = map[string]bool{
	"assert":              true,
	"async_hooks":         true,
	"buffer":              true,
	"child_process":       true,
	"cluster":             true,
	"console":             true,
	"constants":           true,
	"crypto":              true,
	"dgram":               true,
	"diagnostics_channel": true,
	"dns":                 true,
	"domain":              true,
	"events":              true,
	"fs":                  true,
	"http":                true,
	"http2":               true,
	"https":               true,
	"inspector":           true,
	"module":              true,
	"net":                 true,
	"os":                  true,
	"path":                true,
	"perf_hooks":          true,
	"process":             true,
	"punycode":            true,
	"querystring":         true,
	"readline":            true,
	"repl":                true,
	"stream":              true,
	"string_decoder":      true,
	"sys":                 true,
	"timers":              true,
	"tls":                 true,
	"trace_events":        true,
	"tty":                 true,
	"url":                 true,
	"util":                true,
	"v8":                  true,
	"vm":                  true,
	"wasi":                true,
	"worker_threads":      true,
	"zlib":                true,
}

// IsBuiltin reports whether spec names a Node.js core module, including
// the node: scheme and sub-paths such as fs/promises.
func IsBuiltin(spec string) bool {
	if rest, ok := strings.CutPrefix(spec, "node:"); ok {
		return rest != ""
	}
	name, _, _ := strings.Cut(spec, "/")
	return nodeBuiltinModules[name]
}

// BuiltinExternals is the esbuild External list for every core module and
// its sub-paths.
func BuiltinExternals() []string {
	out := make([]string, 0, 2*len(nodeBuiltinModules)+1)
	for name := range nodeBuiltinModules {
		out = append(out, name, name+"/*")
	}
	sort.Strings(out)
	return append(out, "node:*")
}
