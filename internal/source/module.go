package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// Load reads a module from disk. The text is kept byte for byte: the host
// bundler and the rewrite stages see exactly what is on disk.
func Load(path string) (*Module, error) {
	// #nosec G304 -- path is provided by the host bundler
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewModule(NormalizeID(path), string(content)), nil
}

// Hash returns the sha256 digest of the given parts, each prefixed with its length.
func Hash(parts ...string) Digest {
	h := sha256.New()
	var size [8]byte
	for _, p := range parts {
		n, err := safecast.Conv[uint64](len(p))
		if err != nil {
			panic(fmt.Errorf("part length overflow: %w", err))
		}
		for i := range size {
			size[i] = byte(n >> (8 * i))
		}
		_, _ = h.Write(size[:])
		_, _ = h.Write([]byte(p))
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// LineIndex holds the offsets of every newline in a text.
type LineIndex []uint32

// NewLineIndex builds the newline index of text.
func NewLineIndex(text string) LineIndex {
	out := make(LineIndex, 0, len(text)/32)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			off, err := safecast.Conv[uint32](i)
			if err != nil {
				panic(fmt.Errorf("text offset overflow: %w", err))
			}
			out = append(out, off)
		}
	}
	return out
}

// Position converts a byte offset into a 1-based line and column.
func (idx LineIndex) Position(offset int) LineCol {
	off, err := safecast.Conv[uint32](max(offset, 0))
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return toLineCol(idx, off)
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	if len(lineIdx) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}

	// largest lineIdx[i] < off
	lo, hi := 0, len(lineIdx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if hi < 0 {
		return LineCol{Line: 1, Col: off + 1}
	}
	line, err := safecast.Conv[uint32](hi + 2)
	if err != nil {
		panic(fmt.Errorf("line overflow: %w", err))
	}
	return LineCol{Line: line, Col: off - lineIdx[hi]}
}
