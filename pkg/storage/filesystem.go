// Package storage keeps rendered export files on local disk and signs the
// download links that point at them.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrOutsideBase is returned for paths that escape the storage root.
var ErrOutsideBase = errors.New("path escapes storage directory")

const (
	dirPerm  = 0o755
	filePerm = 0o644
	tmpGlob  = ".export-*"
)

// LocalStorage stores export files under a single root directory.
type LocalStorage struct {
	root string
	now  func() time.Time
}

// NewLocalStorage creates root when missing.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		root = "./exports"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{root: abs, now: time.Now}, nil
}

// Save writes data to name, relative to the root. The file is written to a
// temporary sibling and renamed so readers never observe a partial export.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	target, err := s.pathFor(name)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, tmpGlob)
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	staged := tmp.Name()
	defer os.Remove(staged) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("flush %s: %w", name, err)
	}
	if err := os.Chmod(staged, filePerm); err != nil {
		return "", fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(staged, target); err != nil {
		return "", fmt.Errorf("publish %s: %w", name, err)
	}
	return name, nil
}

// Open returns a read handle for name; callers close it.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// Delete removes name. A missing file is not an error.
func (s *LocalStorage) Delete(name string) error {
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// CleanupOlderThan deletes files last modified before now-ttl and prunes
// directories left empty. It returns the removed names sorted.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := s.now().Add(-ttl)
	var removed []string
	var dirs []string

	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root {
				dirs = append(dirs, path)
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if rel, err := filepath.Rel(s.root, path); err == nil {
			removed = append(removed, filepath.ToSlash(rel))
		}
		return nil
	})
	if walkErr != nil {
		return removed, fmt.Errorf("cleanup %s: %w", s.root, walkErr)
	}

	// deepest first so nested empties collapse in one pass
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		_ = os.Remove(dir) // fails on non-empty dirs, which is what we want
	}
	sort.Strings(removed)
	return removed, nil
}

func (s *LocalStorage) pathFor(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", ErrOutsideBase
	}
	path := filepath.Join(s.root, filepath.FromSlash(name))
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", ErrOutsideBase
	}
	return path, nil
}
