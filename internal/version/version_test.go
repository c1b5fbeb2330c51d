package version

import "testing"

func TestString(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})

	tests := []struct {
		version, commit, date string
		want                  string
	}{
		{"0.1.0-dev", "", "", "distpack 0.1.0-dev"},
		{"1.2.3", "abc123", "", "distpack 1.2.3 (abc123)"},
		{"1.2.3", "abc123", "2024-01-15", "distpack 1.2.3 (abc123) built 2024-01-15"},
	}
	for _, tt := range tests {
		Version, GitCommit, BuildDate = tt.version, tt.commit, tt.date
		if got := String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestColoredPlain(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	for _, v := range []string{"0.1.0-dev", "1.2.3", "1.2.3-rc.1+build.123", "weird"} {
		Version = v
		if got := Colored(false); got != v {
			t.Errorf("Colored(false) = %q, want %q", got, v)
		}
	}
}

func TestColoredEnabled(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.2.3"
	if got := Colored(true); got == Version {
		t.Errorf("Colored(true) should add escape codes, got %q", got)
	}
}
