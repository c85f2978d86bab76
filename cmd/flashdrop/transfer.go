package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bamsammich/flashdrop/internal/config"
	"github.com/bamsammich/flashdrop/internal/filter"
	"github.com/bamsammich/flashdrop/internal/link"
	"github.com/bamsammich/flashdrop/internal/stats"
)

// retryDelay spaces attempts while the device is in the wrong phase.
const retryDelay = time.Second

type linkFlags struct {
	addr     string
	timeout  time.Duration
	retryFor time.Duration
	baud     int
	compress bool
}

func (f *linkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, "addr", "", "device link address (default: the local serve process, then config)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", link.DefaultTimeout, "idle limit per frame")
	cmd.Flags().DurationVar(&f.retryFor, "retry-for", time.Minute, "keep retrying while the device is busy")
	cmd.Flags().IntVar(&f.baud, "baud", 0, "throttle to this serial rate (0 = unlimited)")
	cmd.Flags().BoolVar(&f.compress, "compress", false, "zstd-compress the link (must match the device)")
}

// resolveLink picks the address and options. A discovery file written by serve
// wins over the config file; explicit flags win over both.
func (a *app) resolveLink(cmd *cobra.Command, f *linkFlags) (string, link.Options, error) {
	opts, err := a.cfg.LinkOptions()
	if err != nil {
		return "", link.Options{}, err
	}
	addr := a.cfg.ListenAddr()

	if d, err := config.ReadDiscovery(); err == nil && d.Addr != "" {
		a.logger.Debug("found serve process", "addr", d.Addr, "pid", d.PID)
		addr = d.Addr
		opts.Baud = d.Baud
		opts.Compress = d.Compress
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		a.logger.Warn("ignoring unreadable discovery file", "error", err)
	}

	changed := cmd.Flags().Changed
	if changed("addr") {
		addr = f.addr
	}
	if changed("baud") {
		opts.Baud = f.baud
	}
	if changed("compress") {
		opts.Compress = f.compress
	}
	opts.Timeout = f.timeout
	return addr, opts, nil
}

// retry repeats op while the device answers with CodeProtocol, which means
// it is waiting for the other direction.
func retry(ctx context.Context, within time.Duration, op func() error) error {
	deadline := time.Now().Add(within)
	for {
		err := op()
		if err == nil || link.Code(err) != link.CodeProtocol || time.Now().After(deadline) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(retryDelay):
		}
	}
}

func newPushCmd(a *app) *cobra.Command {
	var (
		lf   linkFlags
		name string
	)

	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Send a file to a waiting device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, opts, err := a.resolveLink(cmd, &lf)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() {
				return fmt.Errorf("%s is not a regular file", args[0])
			}
			if name == "" {
				name = filepath.Base(args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			start := time.Now()
			err = retry(ctx, lf.retryFor, func() error {
				if _, err := f.Seek(0, io.SeekStart); err != nil {
					return err
				}
				return link.Push(ctx, addr, name, info.Size(), f, opts)
			})
			if err != nil {
				return a.transferFailed(err)
			}
			a.logger.Info("pushed", "name", name, "bytes", info.Size(), "addr", addr,
				"elapsed", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "name announced to the device (default: base name of FILE)")
	return cmd
}

func newPullCmd(a *app) *cobra.Command {
	var (
		lf      linkFlags
		outDir  string
		maxSize string
	)

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Fetch the file a device is echoing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, opts, err := a.resolveLink(cmd, &lf)
			if err != nil {
				return err
			}
			limit := int64(1 << 62)
			if maxSize != "" {
				if limit, err = filter.ParseSize(maxSize); err != nil {
					return fmt.Errorf("invalid --max-size: %w", err)
				}
			}

			tmp, err := os.CreateTemp(outDir, ".flashdrop-pull-*")
			if err != nil {
				return err
			}
			defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var (
				n    int64
				name string
			)
			err = retry(ctx, lf.retryFor, func() error {
				if err := tmp.Truncate(0); err != nil {
					return err
				}
				if _, err := tmp.Seek(0, io.SeekStart); err != nil {
					return err
				}
				var err error
				n, name, err = link.Pull(ctx, addr, tmp, limit, opts)
				return err
			})
			if closeErr := tmp.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return a.transferFailed(err)
			}

			dst := filepath.Join(outDir, safeName(name))
			if err := os.Rename(tmp.Name(), dst); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s\t%s\n", dst, stats.FormatBytes(n))
			return nil
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "directory to write the file into")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "refuse files larger than SIZE")
	return cmd
}

// safeName keeps only the final element of a peer-supplied name.
func safeName(name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return "pulled.bin"
	}
	return base
}

// transferFailed maps a link failure to an exit code of 10 plus the
// magnitude of its status code.
func (a *app) transferFailed(err error) error {
	code := link.Code(err)
	a.logger.Error("transfer failed", "code", code, "error", err)
	if code < 0 {
		return &exitError{code: 10 - code}
	}
	return &exitError{code: 1}
}
