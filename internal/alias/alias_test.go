package alias

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveKinds(t *testing.T) {
	table, err := NewTable(
		Entry{Find: "lodash", Kind: KindExact, Replacement: "lodash-es"},
		Entry{Find: "@scope/", Kind: KindPrefix, Replacement: "@other/"},
		Entry{Find: ".node", Kind: KindSuffix, Replacement: ".js"},
		Entry{Find: `^(\w+)-legacy$`, Kind: KindRegexp, Replacement: "${1}-modern"},
		Entry{Find: "native-*", Kind: KindGlob, Replacement: "stub-native"},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	tests := []struct {
		spec string
		want string
		ok   bool
	}{
		{"lodash", "lodash-es", true},
		{"lodash/fp", "lodash-es/fp", true},
		{"lodashy", "lodashy", false},
		{"@scope/pkg", "@other/pkg", true},
		{"addon.node", "addon.js", true},
		{"fetch-legacy", "fetch-modern", true},
		{"native-bindings", "stub-native", true},
		{"native-a/b", "native-a/b", false},
		{"react", "react", false},
	}
	for _, tt := range tests {
		got, ok := table.Resolve(tt.spec)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.spec, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	table := MustTable(
		Entry{Find: `^post`, Kind: KindRegexp, Replacement: "first"},
		Entry{Find: "postcss", Kind: KindExact, Replacement: "second"},
	)
	if got, _ := table.Resolve("postcss"); got != "firstcss" {
		t.Fatalf("earlier entry should win, got %q", got)
	}

	swapped := MustTable(
		Entry{Find: "postcss", Kind: KindExact, Replacement: "second"},
		Entry{Find: `^post`, Kind: KindRegexp, Replacement: "first"},
	)
	if got, _ := swapped.Resolve("postcss"); got != "second" {
		t.Fatalf("earlier entry should win after swap, got %q", got)
	}
}

func TestStubReplacesWholeSpecifier(t *testing.T) {
	table := MustTable(Entry{Find: `(^|[/\\])readable-stream$`, Kind: KindRegexp, Replacement: Stub("readable-stream")})
	for _, spec := range []string{"readable-stream", "through2/node_modules/readable-stream"} {
		if got, ok := table.Resolve(spec); !ok || got != "stub:readable-stream" {
			t.Errorf("Resolve(%q) = %q, %v", spec, got, ok)
		}
	}
}

func TestDefaultTable(t *testing.T) {
	table := MustTable(Default("/")...)
	tests := map[string]string{
		"@babel/plugin-syntax-jsx": "stub:empty",
		"postcss":                  "postcss-es6",
		"postcss/":                 "postcss-es6/",
		"bufferutil":               "bufferutil/fallback.js",
		"utf-8-validate":           "utf-8-validate/fallback.js",
		"readable-stream":          "stub:readable-stream",
		"readable-stream/duplex":   "stub:readable-stream-duplex",
		"inherits":                 "stub:inherits",
		"fsevents":                 "stub:fsevents",
		"istextorbinary":           "istextorbinary/edition-node-0.12/index.js",
		"postcss-value-parser":     "postcss-value-parser",
	}
	for spec, want := range tests {
		if got, _ := table.Resolve(spec); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", spec, got, want)
		}
	}
}

func TestNewTableRejectsBadPatterns(t *testing.T) {
	bad := []Entry{
		{Find: "(", Kind: KindRegexp},
		{Find: "[", Kind: KindGlob},
		{Find: "", Kind: KindExact},
		{Find: "x", Kind: Kind("fuzzy")},
	}
	for _, e := range bad {
		if _, err := NewTable(e); err == nil {
			t.Errorf("NewTable(%v) should fail", e)
		}
	}
}

func TestExtendKeepsOrder(t *testing.T) {
	base := MustTable(Entry{Find: "a", Replacement: "1"})
	ext, err := base.Extend(Entry{Find: "b", Replacement: "2"})
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{{Find: "a", Replacement: "1", Kind: KindExact}, {Find: "b", Replacement: "2", Kind: KindExact}}
	if diff := cmp.Diff(want, ext.Entries()); diff != "" {
		t.Fatalf("entries (-want +got):\n%s", diff)
	}
	if base.Len() != 1 {
		t.Fatal("Extend must not modify the receiver")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(""); err != nil || k != KindExact {
		t.Fatalf("ParseKind(\"\") = %v, %v", k, err)
	}
	if k, err := ParseKind("RegExp"); err != nil || k != KindRegexp {
		t.Fatalf("ParseKind(RegExp) = %v, %v", k, err)
	}
	if _, err := ParseKind("nope"); err == nil {
		t.Fatal("expected error")
	}
}
