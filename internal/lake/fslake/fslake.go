// Package fslake implements a local filesystem-backed lake store.
//
// It exists for tests and offline development runs; keys map directly onto
// paths below the configured root directory.
package fslake

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sparkify/internal/lake"
)

// Store is a filesystem lake rooted at a directory.
type Store struct{ root string }

// New returns a Store rooted at dir. The directory does not need to exist
// until the first Put.
func New(dir string) *Store { return &Store{root: dir} }

// List walks the root and returns all file keys matching pattern, sorted.
//
// A missing root directory yields an empty listing rather than an error, so
// that source and sink roots behave like empty buckets.
func (s *Store) List(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if lake.Match(pattern, key) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", s.root, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Open opens the file behind key for reading.
//
// If the context is already canceled at the time of the call, Open returns
// the context error immediately without touching the filesystem. Filesystem
// errors are wrapped with the key while still permitting errors.Is checks by
// callers (e.g., errors.Is(err, os.ErrNotExist)).
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

// Put writes r to the file behind key, creating parent directories as needed.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("put %s: %w", key, err)
	}
	return f.Close()
}

// DeletePrefix removes every file under prefix. A missing prefix is not an
// error.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := os.RemoveAll(s.path(prefix)); err != nil {
		return fmt.Errorf("delete prefix %s: %w", prefix, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(strings.Trim(key, "/")))
}
