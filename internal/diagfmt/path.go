package diagfmt

import (
	"path/filepath"

	"distpack/internal/source"
)

func formatPath(id string, mode PathMode, baseDir string) string {
	if id == "" {
		return ""
	}
	switch mode {
	case PathModeAbsolute:
		return id
	case PathModeBasename:
		return filepath.Base(id)
	case PathModeRelative:
		if baseDir == "" {
			return id
		}
		if rel, err := filepath.Rel(baseDir, id); err == nil {
			return filepath.ToSlash(rel)
		}
		return id
	default:
		return source.RelativePath(id, baseDir)
	}
}
