// Package store is the filesystem a flashdrop device writes slots into.
//
// Every backend exposes the same flat, slash-separated namespace rooted at
// "/". A name can never resolve outside the backend's root directory.
package store

import (
	"errors"
	"os"
	"path"
	"strings"
	"time"
)

// ErrOutsideRoot is returned for names that climb above the store root.
var ErrOutsideRoot = errors.New("path escapes store root")

// ErrNoSpace is returned by writers once a capacity-limited store is full.
var ErrNoSpace = errors.New("no space left on store")

// Entry describes one file or directory.
type Entry struct {
	ModTime time.Time
	Name    string // full store path
	Size    int64
	Mode    os.FileMode
	IsDir   bool
}

// DirEntry is one child of a directory as returned by ReadDir.
type DirEntry struct {
	Name  string // base name only
	IsDir bool
}

// FS is the set of operations the lister and the orchestrator need.
type FS interface {
	// Stat reports metadata for name. A missing entry yields an error
	// matching fs.ErrNotExist.
	Stat(name string) (Entry, error)

	// Create truncates or creates name for writing.
	Create(name string) (WriteFile, error)

	// Open opens name for reading.
	Open(name string) (ReadFile, error)

	// Remove deletes a single file.
	Remove(name string) error

	// ReadDir lists the immediate children of name, sorted by name.
	ReadDir(name string) ([]DirEntry, error)

	// SpaceInfo reports total and used bytes of the store.
	SpaceInfo() (total, used uint64, err error)

	// Close releases resources held by the backend.
	Close() error
}

// WriteFile is a file opened by FS.Create.
type WriteFile interface {
	Write(p []byte) (int, error)
	Close() error
}

// ReadFile is a file opened by FS.Open.
type ReadFile interface {
	Read(p []byte) (int, error)
	Close() error
}

// Clean normalizes name into a rooted slash path ("/a/b").
func Clean(name string) (string, error) {
	rel := path.Clean(strings.TrimLeft(name, "/"))
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", ErrOutsideRoot
	}
	if rel == "." {
		return "/", nil
	}
	return "/" + rel, nil
}

// quotaWriter fails writes that would take the store past its capacity.
type quotaWriter struct {
	w    WriteFile
	left int64
}

func (q *quotaWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > q.left {
		n, err := q.w.Write(p[:q.left])
		q.left -= int64(n)
		if err != nil {
			return n, err
		}
		return n, ErrNoSpace
	}
	n, err := q.w.Write(p)
	q.left -= int64(n)
	return n, err
}

func (q *quotaWriter) Close() error {
	return q.w.Close()
}
