package project

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the project manifest file name.
const ManifestName = "distpack.toml"

// repoMarkers end the upward search: a manifest above a repository root
// belongs to some other project.
var repoMarkers = []string{".git", ".hg"}

// FindManifest returns the nearest distpack.toml at or above startDir,
// searching no further than the enclosing repository root. The error wraps
// ErrNoManifest when nothing was found.
func FindManifest(startDir string) (string, error) {
	dir, err := filepath.Abs(cmp.Or(startDir, "."))
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	start := dir
	for {
		candidate := filepath.Join(dir, ManifestName)
		switch _, err := os.Stat(candidate); {
		case err == nil:
			return candidate, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		if isRepoRoot(dir) {
			return "", fmt.Errorf("%w in %s or its parents up to repository root %s", ErrNoManifest, start, dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w in %s or its parents", ErrNoManifest, start)
		}
		dir = parent
	}
}

func isRepoRoot(dir string) bool {
	for _, marker := range repoMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}
