package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bamsammich/flashdrop/internal/engine"
	"github.com/bamsammich/flashdrop/internal/filter"
	"github.com/bamsammich/flashdrop/internal/link"
	"github.com/bamsammich/flashdrop/internal/store"
)

// DefaultListen is the link address used when none is configured.
const DefaultListen = "127.0.0.1:7878"

// Config represents the optional flashdrop configuration file. Nil fields
// are unset and leave the built-in default in place.
type Config struct {
	Store    StoreConfig    `toml:"store"`
	Transfer TransferConfig `toml:"transfer"`
	Link     LinkConfig     `toml:"link"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Theme    ThemeConfig    `toml:"theme"`
}

// StoreConfig selects and sizes the backing store.
type StoreConfig struct {
	Root       *string `toml:"root"`
	Capacity   *string `toml:"capacity"` // e.g. "1M"; unset uses the real filesystem size
	Backend    *string `toml:"backend"`  // "local" or "sftp"
	SFTPHost   *string `toml:"sftp_host"`
	SFTPUser   *string `toml:"sftp_user"`
	SFTPPort   *int    `toml:"sftp_port"`
	SFTPKey    *string `toml:"sftp_key"`
	KnownHosts *string `toml:"known_hosts"`
}

// TransferConfig holds the receive loop settings.
type TransferConfig struct {
	BasePath      *string `toml:"base_path"`
	MaxFileSize   *string `toml:"max_file_size"`
	SpaceMargin   *string `toml:"space_margin"`
	MinFree       *string `toml:"min_free"`
	CycleDelay    *string `toml:"cycle_delay"`
	LowSpaceDelay *string `toml:"low_space_delay"`
	EchoDelay     *string `toml:"echo_delay"`
	Echo          *bool   `toml:"echo"`
	Verify        *bool   `toml:"verify"`
	FirstSlot     *int    `toml:"first_slot"`
}

// LinkConfig holds the transfer link settings.
type LinkConfig struct {
	Listen   *string `toml:"listen"`
	Baud     *int    `toml:"baud"`
	Compress *bool   `toml:"compress"`
	Timeout  *string `toml:"timeout"`
	Wait     *string `toml:"wait"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen *string `toml:"listen"`
}

// ThemeConfig holds optional color overrides.
type ThemeConfig struct {
	Green  *string `toml:"green"`
	Red    *string `toml:"red"`
	Yellow *string `toml:"yellow"`
	Muted  *string `toml:"muted"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "flashdrop", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}

	cfg, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// LoadFile reads an explicitly named config file. Unlike Load, a missing
// file is an error.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// Engine builds the orchestrator settings, starting from
// engine.DefaultConfig.
func (c Config) Engine() (engine.Config, error) {
	ec := engine.DefaultConfig()
	t := c.Transfer

	if t.BasePath != nil {
		base, err := store.Clean(*t.BasePath)
		if err != nil {
			return engine.Config{}, fmt.Errorf("transfer.base_path: %w", err)
		}
		ec.BasePath = base
	}

	sizes := []struct {
		dst  *uint64
		val  *string
		name string
	}{
		{&ec.MaxFileSize, t.MaxFileSize, "transfer.max_file_size"},
		{&ec.SpaceMargin, t.SpaceMargin, "transfer.space_margin"},
		{&ec.MinFree, t.MinFree, "transfer.min_free"},
	}
	for _, s := range sizes {
		if err := setSize(s.dst, s.val, s.name); err != nil {
			return engine.Config{}, err
		}
	}

	durations := []struct {
		dst  *time.Duration
		val  *string
		name string
	}{
		{&ec.CycleDelay, t.CycleDelay, "transfer.cycle_delay"},
		{&ec.LowSpaceDelay, t.LowSpaceDelay, "transfer.low_space_delay"},
		{&ec.EchoDelay, t.EchoDelay, "transfer.echo_delay"},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.val, d.name); err != nil {
			return engine.Config{}, err
		}
	}

	if t.Echo != nil {
		ec.Echo = *t.Echo
	}
	if t.Verify != nil {
		ec.Verify = *t.Verify
	}
	if t.FirstSlot != nil {
		if *t.FirstSlot < 1 {
			return engine.Config{}, fmt.Errorf("transfer.first_slot: must be at least 1, got %d", *t.FirstSlot)
		}
		ec.FirstSlot = *t.FirstSlot
	}
	return ec, nil
}

// LinkOptions builds the link options.
func (c Config) LinkOptions() (link.Options, error) {
	var opts link.Options
	l := c.Link

	if l.Baud != nil {
		if *l.Baud < 0 {
			return link.Options{}, fmt.Errorf("link.baud: must not be negative, got %d", *l.Baud)
		}
		opts.Baud = *l.Baud
	}
	if l.Compress != nil {
		opts.Compress = *l.Compress
	}
	if err := setDuration(&opts.Timeout, l.Timeout, "link.timeout"); err != nil {
		return link.Options{}, err
	}
	if err := setDuration(&opts.Wait, l.Wait, "link.wait"); err != nil {
		return link.Options{}, err
	}
	return opts, nil
}

// ListenAddr returns the configured link address or DefaultListen.
func (c Config) ListenAddr() string {
	if c.Link.Listen != nil && *c.Link.Listen != "" {
		return *c.Link.Listen
	}
	return DefaultListen
}

// MetricsAddr returns the metrics address; empty disables the endpoint.
func (c Config) MetricsAddr() string {
	if c.Metrics.Listen != nil {
		return *c.Metrics.Listen
	}
	return ""
}

// Capacity returns the configured store quota in bytes, 0 if unset.
func (c Config) Capacity() (uint64, error) {
	var n uint64
	err := setSize(&n, c.Store.Capacity, "store.capacity")
	return n, err
}

// SSHOpts returns the connection options for an SFTP-backed store.
func (c Config) SSHOpts() store.SSHOpts {
	var opts store.SSHOpts
	s := c.Store
	if s.SFTPPort != nil {
		opts.Port = *s.SFTPPort
	}
	if s.SFTPKey != nil {
		opts.KeyFile = *s.SFTPKey
	}
	if s.KnownHosts != nil {
		opts.KnownHosts = *s.KnownHosts
	}
	return opts
}

func setSize(dst *uint64, val *string, name string) error {
	if val == nil {
		return nil
	}
	n, err := filter.ParseSize(*val)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = uint64(n) //nolint:gosec // G115: ParseSize rejects negatives
	return nil
}

func setDuration(dst *time.Duration, val *string, name string) error {
	if val == nil {
		return nil
	}
	d, err := time.ParseDuration(*val)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return fmt.Errorf("%s: must not be negative, got %s", name, d)
	}
	*dst = d
	return nil
}
