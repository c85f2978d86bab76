package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/flashdrop/internal/config"
	"github.com/bamsammich/flashdrop/internal/engine"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "flashdrop")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	path := filepath.Join(configDir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Store.Root)
	assert.Nil(t, cfg.Transfer.Echo)
	assert.Nil(t, cfg.Link.Listen)
	assert.Equal(t, config.DefaultListen, cfg.ListenAddr())
	assert.Empty(t, cfg.MetricsAddr())
}

func TestLoad_FullConfig(t *testing.T) {
	writeConfig(t, `
[store]
root = "/srv/spiffs"
capacity = "1M"
backend = "sftp"
sftp_host = "device.local"
sftp_user = "pi"
sftp_port = 2222
sftp_key = "/keys/id_ed25519"

[transfer]
base_path = "slots"
max_file_size = "0x2000"
space_margin = "8K"
min_free = "4K"
cycle_delay = "1s"
low_space_delay = "1m"
echo_delay = "250ms"
echo = false
verify = true
first_slot = 10

[link]
listen = ":9000"
baud = 115200
compress = true
timeout = "3s"
wait = "45s"

[metrics]
listen = ":9100"

[theme]
green = "#00ff00"
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Store.Root)
	assert.Equal(t, "/srv/spiffs", *cfg.Store.Root)
	require.NotNil(t, cfg.Store.Backend)
	assert.Equal(t, "sftp", *cfg.Store.Backend)

	capacity, err := cfg.Capacity()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<20), capacity)

	ssh := cfg.SSHOpts()
	assert.Equal(t, 2222, ssh.Port)
	assert.Equal(t, "/keys/id_ed25519", ssh.KeyFile)

	ec, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, "/slots", ec.BasePath)
	assert.Equal(t, uint64(0x2000), ec.MaxFileSize)
	assert.Equal(t, uint64(8192), ec.SpaceMargin)
	assert.Equal(t, uint64(4096), ec.MinFree)
	assert.Equal(t, time.Second, ec.CycleDelay)
	assert.Equal(t, time.Minute, ec.LowSpaceDelay)
	assert.Equal(t, 250*time.Millisecond, ec.EchoDelay)
	assert.False(t, ec.Echo)
	assert.True(t, ec.Verify)
	assert.Equal(t, 10, ec.FirstSlot)

	opts, err := cfg.LinkOptions()
	require.NoError(t, err)
	assert.Equal(t, 115200, opts.Baud)
	assert.True(t, opts.Compress)
	assert.Equal(t, 3*time.Second, opts.Timeout)
	assert.Equal(t, 45*time.Second, opts.Wait)

	assert.Equal(t, ":9000", cfg.ListenAddr())
	assert.Equal(t, ":9100", cfg.MetricsAddr())

	require.NotNil(t, cfg.Theme.Green)
	assert.Equal(t, "#00ff00", *cfg.Theme.Green)
	assert.Nil(t, cfg.Theme.Red)
}

func TestLoad_PartialConfig(t *testing.T) {
	writeConfig(t, `
[transfer]
verify = true
`)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Store.Root)
	assert.Nil(t, cfg.Link.Baud)

	ec, err := cfg.Engine()
	require.NoError(t, err)

	want := engine.DefaultConfig()
	want.Verify = true
	assert.Equal(t, want.BasePath, ec.BasePath)
	assert.Equal(t, want.SpaceMargin, ec.SpaceMargin)
	assert.Equal(t, want.MinFree, ec.MinFree)
	assert.Equal(t, want.CycleDelay, ec.CycleDelay)
	assert.Equal(t, want.LowSpaceDelay, ec.LowSpaceDelay)
	assert.Equal(t, want.EchoDelay, ec.EchoDelay)
	assert.Equal(t, want.Echo, ec.Echo)
	assert.True(t, ec.Verify)
	assert.Equal(t, 1, ec.FirstSlot)

	opts, err := cfg.LinkOptions()
	require.NoError(t, err)
	assert.Zero(t, opts.Baud)
	assert.False(t, opts.Compress)
}

func TestLoad_InvalidTOML(t *testing.T) {
	writeConfig(t, "invalid [[[")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_UnknownKey(t *testing.T) {
	writeConfig(t, `
[transfer]
echo_dely = "1s"
`)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "echo_dely")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEngine_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"bad size", "[transfer]\nmin_free = \"lots\"", "transfer.min_free"},
		{"bad duration", "[transfer]\ncycle_delay = \"soon\"", "transfer.cycle_delay"},
		{"negative duration", "[transfer]\necho_delay = \"-1s\"", "transfer.echo_delay"},
		{"zero first slot", "[transfer]\nfirst_slot = 0", "transfer.first_slot"},
		{"escaping base", "[transfer]\nbase_path = \"../up\"", "transfer.base_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			cfg, err := config.LoadFile(path)
			require.NoError(t, err)

			_, err = cfg.Engine()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLinkOptions_Invalid(t *testing.T) {
	path := writeConfig(t, "[link]\nbaud = -9600")
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	_, err = cfg.LinkOptions()
	assert.ErrorContains(t, err, "link.baud")

	path = writeConfig(t, "[link]\ntimeout = \"x\"")
	cfg, err = config.LoadFile(path)
	require.NoError(t, err)

	_, err = cfg.LinkOptions()
	assert.ErrorContains(t, err, "link.timeout")
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/flashdrop/config.toml", config.Path())
}
