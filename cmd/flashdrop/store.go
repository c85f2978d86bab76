package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bamsammich/flashdrop/internal/config"
	"github.com/bamsammich/flashdrop/internal/filter"
	"github.com/bamsammich/flashdrop/internal/store"
)

// storeFlags selects the backing store for commands that touch it.
type storeFlags struct {
	root     string
	capacity string
	sftp     string // user@host
	sshKey   string
	sshPort  int
	insecure bool
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "root", ".", "directory that holds the store")
	cmd.Flags().StringVar(&f.capacity, "capacity", "", "emulated partition size (e.g. 1M, 0x100000); default is the real filesystem")
	cmd.Flags().StringVar(&f.sftp, "sftp", "", "serve a remote directory over SFTP (user@host)")
	cmd.Flags().StringVar(&f.sshKey, "ssh-key", "", "SSH private key file (default: auto-detect)")
	cmd.Flags().IntVar(&f.sshPort, "ssh-port", 22, "SSH port")
	cmd.Flags().BoolVar(&f.insecure, "insecure", false, "skip SSH host key verification")
}

// openedStore is a store plus what is needed to release it.
type openedStore struct {
	fs    store.FS
	lock  *store.InstanceLock
	label string
}

func (o *openedStore) Close() error {
	err := o.fs.Close()
	if o.lock != nil {
		err = errors.Join(err, o.lock.Unlock())
	}
	return err
}

// openStore builds the store from flags, falling back to the config file
// for anything not given on the command line. A local store is locked when
// exclusive is set.
func (a *app) openStore(cmd *cobra.Command, f *storeFlags, exclusive bool) (*openedStore, error) {
	sc := a.cfg.Store
	changed := cmd.Flags().Changed

	if !changed("root") && sc.Root != nil {
		f.root = *sc.Root
	}
	if !changed("sftp") && sc.Backend != nil && *sc.Backend == "sftp" {
		if sc.SFTPHost == nil {
			return nil, errors.New("config: store.backend is sftp but store.sftp_host is unset")
		}
		f.sftp = *sc.SFTPHost
		if sc.SFTPUser != nil {
			f.sftp = *sc.SFTPUser + "@" + f.sftp
		}
	}
	opts := a.cfg.SSHOpts()
	if changed("ssh-key") || opts.KeyFile == "" {
		opts.KeyFile = f.sshKey
	}
	if changed("ssh-port") || opts.Port == 0 {
		opts.Port = f.sshPort
	}
	opts.Insecure = f.insecure

	if f.sftp != "" {
		userName, host := splitUserHost(f.sftp)
		fsys, err := store.DialSFTP(host, userName, f.root, opts)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("opened sftp store", "host", host, "root", f.root)
		return &openedStore{fs: fsys, label: f.sftp + ":" + f.root}, nil
	}

	capacity, err := a.cfg.Capacity()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if changed("capacity") {
		n, err := filter.ParseSize(f.capacity)
		if err != nil {
			return nil, fmt.Errorf("invalid --capacity: %w", err)
		}
		capacity = uint64(n) //nolint:gosec // G115: ParseSize rejects negatives
	}

	local, err := store.NewLocalFS(f.root, capacity)
	if err != nil {
		return nil, err
	}
	opened := &openedStore{fs: local, label: local.Root()}
	if exclusive {
		lock, err := store.Lock(config.LockPath(local.Root()))
		if err != nil {
			return nil, err
		}
		opened.lock = lock
	}
	a.logger.Debug("opened local store", "root", local.Root(), "capacity", capacity)
	return opened, nil
}

func splitUserHost(s string) (string, string) {
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}
