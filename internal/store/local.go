package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Compile-time interface check.
var _ FS = (*LocalFS)(nil)

// LocalFS serves a host directory as the store.
type LocalFS struct {
	root     string
	capacity uint64
}

// NewLocalFS creates a store rooted at root. A non-zero capacity emulates a
// fixed-size partition: total is capacity and used is the sum of regular
// file sizes under root. Zero reports the host filesystem's numbers.
func NewLocalFS(root string, capacity uint64) (*LocalFS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("store root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store root %s is not a directory", abs)
	}
	return &LocalFS{root: abs, capacity: capacity}, nil
}

// Root returns the absolute host directory backing the store.
func (l *LocalFS) Root() string { return l.root }

func (l *LocalFS) abs(name string) (string, string, error) {
	clean, err := Clean(name)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", name, err)
	}
	return clean, filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *LocalFS) Stat(name string) (Entry, error) {
	clean, absPath, err := l.abs(name)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Lstat(absPath)
	if err != nil {
		return Entry{}, err
	}
	return infoToEntry(info, clean), nil
}

//nolint:ireturn // implements FS interface
func (l *LocalFS) Create(name string) (WriteFile, error) {
	_, absPath, err := l.abs(name)
	if err != nil {
		return nil, err
	}

	var left int64
	if l.capacity > 0 {
		// The file being replaced no longer counts against the quota.
		var existing int64
		if info, err := os.Lstat(absPath); err == nil && info.Mode().IsRegular() {
			existing = info.Size()
		}
		_, used, err := l.SpaceInfo()
		if err != nil {
			return nil, err
		}
		left = int64(l.capacity) - int64(used) + existing //nolint:gosec // G115: capacities fit in int64
		if left < 0 {
			left = 0
		}
	}

	f, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	if l.capacity > 0 {
		return &quotaWriter{w: f, left: left}, nil
	}
	return f, nil
}

//nolint:ireturn // implements FS interface
func (l *LocalFS) Open(name string) (ReadFile, error) {
	_, absPath, err := l.abs(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (l *LocalFS) Remove(name string) error {
	clean, absPath, err := l.abs(name)
	if err != nil {
		return err
	}
	if clean == "/" {
		return fmt.Errorf("remove store root: %w", fs.ErrPermission)
	}
	return os.Remove(absPath)
}

func (l *LocalFS) ReadDir(name string) ([]DirEntry, error) {
	_, absPath, err := l.abs(name)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, fmt.Errorf("readdir %s: %w", name, err)
	}

	result := make([]DirEntry, 0, len(entries))
	for _, d := range entries {
		result = append(result, DirEntry{Name: d.Name(), IsDir: d.IsDir()})
	}
	return result, nil
}

func (l *LocalFS) SpaceInfo() (uint64, uint64, error) {
	if l.capacity == 0 {
		return statfs(l.root)
	}

	var used uint64
	err := filepath.WalkDir(l.root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		used += uint64(info.Size()) //nolint:gosec // G115: file sizes are non-negative
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("measure %s: %w", l.root, err)
	}
	return l.capacity, used, nil
}

func (*LocalFS) Close() error { return nil }

func infoToEntry(info fs.FileInfo, name string) Entry {
	return Entry{
		Name:    name,
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
}
