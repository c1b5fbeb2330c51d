package alias

// StubPrefix marks a replacement served from the embedded stand-in modules.
const StubPrefix = "stub:"

// Stub returns the replacement specifier for an embedded stand-in.
func Stub(name string) string { return StubPrefix + name }

// EmptyModule is the inert stand-in for optional dependencies the
// distribution never executes.
var EmptyModule = Stub("empty")

// Default returns the built-in table. sep is the platform path separator
// used in fallback file replacements.
func Default(sep string) []Entry {
	return []Entry{
		{Find: `^@babel/plugin-syntax-jsx$`, Kind: KindRegexp, Replacement: EmptyModule},
		{Find: `^postcss$`, Kind: KindRegexp, Replacement: "postcss-es6"},
		{Find: `^postcss[/\\]$`, Kind: KindRegexp, Replacement: "postcss-es6" + sep},
		// native addons only speed up production websockets
		{Find: `^bufferutil$`, Kind: KindRegexp, Replacement: "bufferutil" + sep + "fallback.js"},
		{Find: `^utf-8-validate$`, Kind: KindRegexp, Replacement: "utf-8-validate" + sep + "fallback.js"},
		// node's own streams
		{Find: `(^|[/\\])readable-stream$`, Kind: KindRegexp, Replacement: Stub("readable-stream")},
		{Find: `(^|[/\\])readable-stream[/\\]duplex`, Kind: KindRegexp, Replacement: Stub("readable-stream-duplex")},
		{Find: `^inherits$`, Kind: KindRegexp, Replacement: Stub("inherits")},
		// fsevents is only touched when its exports are used
		{Find: `^fsevents$`, Kind: KindRegexp, Replacement: Stub("fsevents")},
		// skip the editions loader and its dependency tree
		{Find: `^istextorbinary$`, Kind: KindRegexp, Replacement: "istextorbinary/edition-node-0.12/index.js"},
	}
}
