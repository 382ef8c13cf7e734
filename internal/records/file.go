// internal/records/file.go
//
// JSON document record store (default backend, ./files/records.json).
// Notes:
//   - A missing or empty file is an empty store.
//   - Keys this package does not understand are written back untouched.
//   - Writes go to a temp file in the same directory, then rename.

package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File stores records in a single JSON object on disk. The document is
// re-read on every call and rewritten in full on every Put. Keys and values
// this package does not understand are written back untouched.
type File struct {
	path string
	mu   sync.Mutex // serializes read-modify-write cycles within the process
}

// NewFile returns a store backed by the JSON document at path. A missing
// file is an empty store.
func NewFile(path string) *File { return &File{path: path} }

// Path returns the document location.
func (f *File) Path() string { return f.path }

func (f *File) load() (map[string]json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStoreIO, f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrStoreIO, f.path, err)
	}
	return doc, nil
}

// Best implements Store.
func (f *File) Best(ctx context.Context, key string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return 0, false, err
	}
	raw, ok := doc[key]
	if !ok {
		return 0, false, nil
	}
	var secs int
	if err := json.Unmarshal(raw, &secs); err != nil || secs < 0 {
		return 0, false, fmt.Errorf("%w: %s: bad value %s", ErrStoreIO, key, raw)
	}
	return secs, true, nil
}

// Put implements Store. The new document is written to a temporary file
// in the same directory and renamed over the old one. A stored time that is
// already as good is left alone and nothing is written.
func (f *File) Put(ctx context.Context, key string, seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("record %s: negative time %d", key, seconds)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	if raw, ok := doc[key]; ok {
		var prev int
		if json.Unmarshal(raw, &prev) == nil && prev >= 0 && prev <= seconds {
			return nil
		}
	}
	doc[key] = json.RawMessage(fmt.Sprintf("%d", seconds))

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrStoreIO, err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", ErrStoreIO, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".records-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp: %w", ErrStoreIO, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrStoreIO, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStoreIO, tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("%w: rename to %s: %w", ErrStoreIO, f.path, err)
	}
	return nil
}

// All implements Store. Entries whose value is not a non-negative integer
// are skipped.
func (f *File) All(ctx context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(doc))
	for k, raw := range doc {
		var secs int
		if json.Unmarshal(raw, &secs) == nil && secs >= 0 {
			out[k] = secs
		}
	}
	return out, nil
}
