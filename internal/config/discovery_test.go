package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/flashdrop/internal/config"
)

func TestDiscoveryPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, "/run/user/1000/flashdrop/serve.toml", config.DiscoveryPath())
}

func TestLockPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	a := config.LockPath("/srv/spiffs")
	assert.Equal(t, "/run/user/1000/flashdrop", filepath.Dir(a))
	assert.Regexp(t, `^store-[0-9a-f]{16}\.lock$`, filepath.Base(a))
	assert.Equal(t, a, config.LockPath("/srv/spiffs/"))
	assert.NotEqual(t, a, config.LockPath("/srv/other"))
}

func TestWriteReadDiscovery(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	want := config.Discovery{
		Addr:     "127.0.0.1:7878",
		Root:     "/srv/spiffs",
		PID:      4242,
		Baud:     115200,
		Compress: true,
	}
	require.NoError(t, config.WriteDiscovery(want))

	path := filepath.Join(dir, "flashdrop", "serve.toml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `addr = "127.0.0.1:7878"`)
	assert.Contains(t, string(data), "pid = 4242")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := config.ReadDiscovery()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	config.RemoveDiscovery()
	_, err = config.ReadDiscovery()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadDiscovery_Missing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	_, err := config.ReadDiscovery()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadDiscovery_Invalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "flashdrop"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flashdrop", "serve.toml"), []byte("addr = ["), 0o600))

	_, err := config.ReadDiscovery()
	require.Error(t, err)
	assert.NotErrorIs(t, err, os.ErrNotExist)
}
