package minify

import (
	"os"
	"slices"
	"strings"
)

// DebugFromEnv reports whether debug diagnostics are on: DEBUG set to a
// truthy value or --debug among args.
func DebugFromEnv(args []string) bool {
	if slices.Contains(args, "--debug") {
		return true
	}
	return truthy(os.Getenv("DEBUG"))
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}
