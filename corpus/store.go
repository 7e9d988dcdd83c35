// Package corpus stores explored values on disk as JSON files named by
// their content hash, so re-runs and synth can pick them back up.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rix0rrr/cdk-reflect/core"
)

// Store is a directory of content-hash-named value files.
type Store struct {
	dir string
}

// NewStore creates the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create corpus directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// Put writes v as <hash>.json and returns the hash and path. Writing an
// already-present value is idempotent.
func (s *Store) Put(v core.Value) (string, string, error) {
	hash := core.HashValue(v)
	path := filepath.Join(s.dir, hash+".json")
	if _, err := os.Stat(path); err == nil {
		return hash, path, nil
	}
	data, err := core.MarshalValueIndent(v)
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write corpus entry: %w", err)
	}
	return hash, path, nil
}

// Load reads one value file.
func Load(path string) (core.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read value file %s: %w", path, err)
	}
	v, err := core.UnmarshalValue(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse value file %s: %w", path, err)
	}
	return v, nil
}

// List returns the paths of every value file in the store, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, filepath.Join(s.dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
