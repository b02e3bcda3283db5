package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Entry format changes
const schemaVersion uint16 = 1

// Digest is a SHA-256 content hash.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never set.
func (d Digest) IsZero() bool { return d == Digest{} }

// Sum hashes b.
func Sum(b []byte) Digest { return sha256.Sum256(b) }

// SumFile hashes the file at path without loading it whole.
func SumFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Digest{}, err
	}
	var d Digest
	h.Sum(d[:0])
	return d, nil
}

// Key combines the parts that decide a run's outcome.
func Key(parts ...string) Digest {
	h := sha256.New()
	for _, p := range parts {
		// length prefix keeps ("ab","c") and ("a","bc") apart
		fmt.Fprintf(h, "%d:%s;", len(p), p)
	}
	var d Digest
	h.Sum(d[:0])
	return d
}

// Entry records one completed patch run.
type Entry struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	InputDigest Digest
	RuleDigest  string

	// digests of every file the run wrote, keyed by path
	Outputs map[string]Digest

	// substitutions per target kind
	Counts  map[string]int
	Total   int
	Written bool

	Created time.Time
}

// Store keeps run entries on disk, one msgpack file per key.
// Thread-safe for concurrent access.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir returns $XDG_CACHE_HOME/<app>, falling back to ~/.cache/<app>.
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

// Open returns a store rooted at dir, creating it when missing.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir is the store root.
func (s *Store) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

func (s *Store) pathFor(key Digest) string {
	return filepath.Join(s.dir, "runs", key.String()+".mp")
}

// Put writes e under key, replacing any previous entry atomically.
func (s *Store) Put(key Digest, e *Entry) (err error) {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e.Schema = schemaVersion
	p := s.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(e); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get loads the entry for key. Entries from another schema are treated
// as missing.
func (s *Store) Get(key Digest) (*Entry, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var e Entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return nil, false, err
	}
	if e.Schema != schemaVersion {
		return nil, false, nil
	}
	return &e, true, nil
}

// Fresh reports whether every output e recorded is still on disk with the
// same content.
func (e *Entry) Fresh() bool {
	if e == nil {
		return false
	}
	for path, want := range e.Outputs {
		got, err := SumFile(path)
		if err != nil || got != want {
			return false
		}
	}
	return true
}

// Clear removes every entry and reports how many were dropped.
func (s *Store) Clear() (int, error) {
	if s == nil {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := filepath.Join(s.dir, "runs")
	entries, err := os.ReadDir(runs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for _, de := range entries {
		if filepath.Ext(de.Name()) == ".mp" {
			n++
		}
	}
	// тривиально: переименуем каталог и удалим
	old := runs + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(runs, old); err != nil {
		return 0, err
	}
	return n, os.RemoveAll(old)
}
