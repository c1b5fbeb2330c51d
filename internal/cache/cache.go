// Package cache keeps transformed module text across builds. Entries are
// keyed by a digest of the module id, its text and the rule set, and are
// validated against the files the rewrite read.
package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"distpack/internal/source"
)

// Schema is bumped whenever the Entry layout changes.
const Schema uint16 = 1

// ErrSchema is returned by Get for entries written by another layout.
var ErrSchema = errors.New("cache: schema mismatch")

// Entry is one cached rewrite result.
type Entry struct {
	Schema uint16
	ID     string
	Rule   string
	Code   string
	// Deps and DepHashes describe the files read by the rewrite; a missing
	// file is recorded with a zero digest.
	Deps      []string
	DepHashes []source.Digest
	Stored    time.Time
}

// Store is a two-level cache: an in-process map in front of msgpack files
// under dir. Safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	dir string
	mem map[source.Digest]*Entry
}

// DefaultDir returns $XDG_CACHE_HOME/<app> or ~/.cache/<app>.
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// Open returns a store rooted at dir, creating it when needed. An empty
// dir gives a memory-only store.
func Open(dir string) (*Store, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
	}
	return &Store{dir: dir, mem: make(map[source.Digest]*Entry, 64)}, nil
}

// Dir reports the on-disk location; "" for memory-only stores.
func (s *Store) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

// Key derives the cache key of a module for a given rule fingerprint.
func Key(fingerprint, id, code string) source.Digest {
	return source.Hash(fmt.Sprint(Schema), fingerprint, id, code)
}

func (s *Store) pathFor(key source.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(s.dir, "mods", hexKey[:2], hexKey+".mp")
}

// Put stores e under key, recording the current digests of its deps.
func (s *Store) Put(key source.Digest, e *Entry) error {
	if s == nil || e == nil {
		return nil
	}
	stored := *e
	stored.Schema = Schema
	stored.DepHashes = hashDeps(e.Deps)
	if stored.Stored.IsZero() {
		stored.Stored = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem[key] = &stored
	if s.dir == "" {
		return nil
	}

	p := s.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		// already renamed on success
		_ = os.Remove(tmp)
	}()
	if err := msgpack.NewEncoder(f).Encode(&stored); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get returns the entry for key when present and its deps are unchanged.
// A decode failure is returned as an error so callers can report it; the
// entry is then treated as a miss.
func (s *Store) Get(key source.Digest) (*Entry, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	s.mu.RLock()
	e, ok := s.mem[key]
	s.mu.RUnlock()
	if !ok {
		var err error
		e, ok, err = s.load(key)
		if err != nil || !ok {
			return nil, false, err
		}
		s.mu.Lock()
		s.mem[key] = e
		s.mu.Unlock()
	}
	if !depsFresh(e) {
		return nil, false, nil
	}
	return e, true, nil
}

func (s *Store) load(key source.Digest) (*Entry, bool, error) {
	if s.dir == "" {
		return nil, false, nil
	}
	p := s.pathFor(key)
	// #nosec G304 -- path is derived from the cache key
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		_ = f.Close()
	}()
	var e Entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", filepath.Base(p), err)
	}
	if e.Schema != Schema {
		return nil, false, fmt.Errorf("%w: %d", ErrSchema, e.Schema)
	}
	return &e, true, nil
}

// Len reports the number of entries held in memory.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mem)
}

// DropAll removes every entry, in memory and on disk.
func (s *Store) DropAll() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem = make(map[source.Digest]*Entry, 64)
	if s.dir == "" {
		return nil
	}
	old := s.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(s.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(s.dir, 0o750)
}

func hashDeps(deps []string) []source.Digest {
	if len(deps) == 0 {
		return nil
	}
	out := make([]source.Digest, len(deps))
	for i, dep := range deps {
		out[i] = hashFile(dep)
	}
	return out
}

func hashFile(path string) source.Digest {
	// #nosec G304 -- deps are files a rewrite already read
	data, err := os.ReadFile(path)
	if err != nil {
		return source.Digest{}
	}
	return source.Hash(string(data))
}

func depsFresh(e *Entry) bool {
	if len(e.Deps) != len(e.DepHashes) {
		return false
	}
	for i, dep := range e.Deps {
		if hashFile(dep) != e.DepHashes[i] {
			return false
		}
	}
	return true
}
