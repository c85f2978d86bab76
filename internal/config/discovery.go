package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/cespare/xxhash/v2"
)

// Discovery describes a running serve process so host-side commands can
// find its link without flags.
type Discovery struct {
	Addr     string `toml:"addr"`
	Root     string `toml:"root"`
	PID      int    `toml:"pid"`
	Baud     int    `toml:"baud"`
	Compress bool   `toml:"compress"`
}

// RuntimeDir holds per-user state of running processes: $XDG_RUNTIME_DIR
// when set, otherwise a per-user temp directory.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "flashdrop")
	}
	return filepath.Join(os.TempDir(), "flashdrop-"+strconv.Itoa(os.Getuid()))
}

// DiscoveryPath returns where serve records its Discovery file.
func DiscoveryPath() string {
	return filepath.Join(RuntimeDir(), "serve.toml")
}

// LockPath returns the instance lock file for the store rooted at root. It
// lives in RuntimeDir so the store itself only holds slot and user files.
func LockPath(root string) string {
	return filepath.Join(RuntimeDir(), fmt.Sprintf("store-%016x.lock", xxhash.Sum64String(filepath.Clean(root))))
}

// WriteDiscovery writes the discovery file, creating its directory if needed.
func WriteDiscovery(d Discovery) error {
	path := DiscoveryPath()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create runtime dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(d); err != nil {
		return fmt.Errorf("encode discovery: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// ReadDiscovery reads the discovery file. Returns os.ErrNotExist if no serve
// process has written one.
func ReadDiscovery() (Discovery, error) {
	var d Discovery
	_, err := toml.DecodeFile(DiscoveryPath(), &d)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Discovery{}, os.ErrNotExist
		}
		return Discovery{}, err
	}
	return d, nil
}

// RemoveDiscovery removes the discovery file (best-effort).
func RemoveDiscovery() {
	os.Remove(DiscoveryPath()) //nolint:errcheck // best-effort cleanup on shutdown
}
