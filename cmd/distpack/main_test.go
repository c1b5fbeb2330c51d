package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"distpack/internal/project"
	"distpack/internal/rewrite"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--color", "off"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSelectTargets(t *testing.T) {
	m := &project.Manifest{Config: project.Config{Targets: []project.TargetConfig{
		{Name: "cli"}, {Name: "worker"}, {Name: "daemon"},
	}}}

	all, err := selectTargets(m, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("want all targets, got %d", len(all))
	}

	some, err := selectTargets(m, []string{"daemon", "cli"})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, tc := range some {
		names = append(names, tc.Name)
	}
	if diff := cmp.Diff([]string{"cli", "daemon"}, names); diff != "" {
		t.Fatalf("manifest order expected (-want +got):\n%s", diff)
	}

	_, err = selectTargets(m, []string{"cli", "nope"})
	if err == nil || !strings.Contains(err.Error(), "nope") || !strings.Contains(err.Error(), "available: cli, worker, daemon") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProjectName(t *testing.T) {
	tests := []struct{ dir, want string }{
		{"/work/My Tool", "my-tool"},
		{"/work/cli_2.0", "cli_2.0"},
		{"/work/---", "distpack-project"},
		{"/work/ünïcode", "ncode"},
	}
	for _, tt := range tests {
		if got := projectName(tt.dir); got != tt.want {
			t.Errorf("projectName(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestReadModes(t *testing.T) {
	if m, err := readUIMode(" ON "); err != nil || m != uiModeOn {
		t.Fatalf("readUIMode = %q, %v", m, err)
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("expected error for unknown ui mode")
	}
	if m, err := readUIMode(""); err != nil || m != uiModeAuto {
		t.Fatalf("readUIMode(\"\") = %q, %v", m, err)
	}
	if !progressEnabled(uiModeOn, diagFormatJSON, 1) {
		t.Fatal("--ui on must force the progress view")
	}
	if progressEnabled(uiModeAuto, diagFormatJSON, 1) {
		t.Fatal("auto mode must leave stdout to JSON diagnostics")
	}
	if progressEnabled(uiModeAuto, diagFormatPretty, 0) {
		t.Fatal("auto mode has nothing to show without targets")
	}
	if c, err := readColorMode("off"); err != nil || c {
		t.Fatalf("readColorMode(off) = %v, %v", c, err)
	}
	if _, err := readColorMode("rainbow"); err == nil {
		t.Fatal("expected error for unknown color mode")
	}
}

func TestFormatPathForOutput(t *testing.T) {
	root := filepath.FromSlash("/proj")
	tests := []struct{ path, want string }{
		{filepath.FromSlash("/proj/dist/cli.js"), "dist/cli.js"},
		{filepath.FromSlash("/elsewhere/cli.js"), filepath.FromSlash("/elsewhere/cli.js")},
		{"", ""},
	}
	for _, tt := range tests {
		if got := formatPathForOutput(root, tt.path); got != tt.want {
			t.Errorf("formatPathForOutput(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFingerprintTracksRuleOptions(t *testing.T) {
	rules := rewrite.DefaultRegistry(rewrite.Options{})
	a := fingerprint(rules, rewrite.Options{Template: "treemap"})
	b := fingerprint(rules, rewrite.Options{Template: "sunburst"})
	if a == b {
		t.Fatal("template must change the fingerprint")
	}
}

func TestInitResolveBundle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hello")

	out, _, err := execute(t, "init", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, project.ManifestName) || !strings.Contains(out, "cli.js") {
		t.Fatalf("init output:\n%s", out)
	}
	if _, _, err := execute(t, "init", dir); err == nil {
		t.Fatal("second init must refuse to overwrite the manifest")
	}

	out, _, err = execute(t, "resolve", "-C", dir, "postcss", "left-pad")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(out, "postcss -> postcss-es6") || !strings.Contains(out, "left-pad (no alias)") {
		t.Fatalf("resolve output:\n%s", out)
	}

	out, _, err = execute(t, "resolve", "-C", dir, "--list")
	if err != nil {
		t.Fatalf("resolve --list: %v", err)
	}
	if !strings.Contains(out, `regexp "^postcss$" -> "postcss-es6"`) || !strings.Contains(out, "env  process.env.VERSION") {
		t.Fatalf("resolve --list output:\n%s", out)
	}

	out, _, err = execute(t, "bundle", "-C", dir, "--ui", "off", "--no-cache", "--version-string", "1.0.0")
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	if !strings.Contains(out, "built dist/hello.js") {
		t.Fatalf("bundle output:\n%s", out)
	}
	artifact := filepath.Join(dir, "dist", "hello.js")
	data, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#!/usr/bin/env node\n") {
		t.Fatalf("artifact lost its shebang:\n%s", data)
	}
	if !strings.Contains(string(data), "1.0.0") || strings.Contains(string(data), "process.env.VERSION") {
		t.Fatalf("version string not substituted:\n%s", data)
	}
	st, err := os.Stat(artifact)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm()&0o100 == 0 {
		t.Fatalf("artifact is not executable: %v", st.Mode())
	}
}

func TestTransformCommand(t *testing.T) {
	dir := t.TempDir()
	if _, err := project.WriteDefault(dir, "demo", "cli.js"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}
	mod := filepath.Join(dir, "mod.js")
	code := "// " + rewrite.InlineMarker + "\nmodule.exports = fs.readFile(new URL('./hello.txt', __filename), 'utf-8');\n"
	if err := os.WriteFile(mod, []byte(code), 0o600); err != nil {
		t.Fatal(err)
	}

	out, errOut, err := execute(t, "transform", "--no-cache", mod)
	if err != nil {
		t.Fatalf("transform: %v\n%s", err, errOut)
	}
	if !strings.Contains(out, `Promise.resolve("hi")`) {
		t.Fatalf("transform output:\n%s", out)
	}
	if !strings.Contains(errOut, "rewritten (inline-fs-readfile)") {
		t.Fatalf("transform status:\n%s", errOut)
	}

	plain := filepath.Join(dir, "plain.js")
	if err := os.WriteFile(plain, []byte("module.exports = 1;\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, errOut, err = execute(t, "transform", "--no-cache", plain)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" || !strings.Contains(errOut, "unchanged") {
		t.Fatalf("stdout %q stderr %q", out, errOut)
	}
}

func TestCleanDropsCachedRewrites(t *testing.T) {
	dir := t.TempDir()
	manifestPath, err := project.WriteDefault(dir, "demo", "cli.js")
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(manifestPath, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("\n[cache]\ndir = \"cache\"\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600); err != nil {
		t.Fatal(err)
	}
	mod := filepath.Join(dir, "mod.js")
	code := "// " + rewrite.InlineMarker + "\nmodule.exports = fs.readFile(new URL('./a.txt', __filename), 'utf-8');\n"
	if err := os.WriteFile(mod, []byte(code), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, errOut, err := execute(t, "transform", "--no-cache=false", mod); err != nil {
		t.Fatalf("transform: %v\n%s", err, errOut)
	}
	mods := filepath.Join(dir, "cache", "mods")
	if _, err := os.Stat(mods); err != nil {
		t.Fatalf("expected cached entries: %v", err)
	}

	out, _, err := execute(t, "clean", "-C", dir)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if !strings.Contains(out, "removed cache") {
		t.Fatalf("clean output: %q", out)
	}
	if _, err := os.Stat(mods); !os.IsNotExist(err) {
		t.Fatalf("cache entries survived clean: %v", err)
	}
}
