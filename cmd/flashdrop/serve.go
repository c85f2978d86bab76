package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bamsammich/flashdrop/internal/config"
	"github.com/bamsammich/flashdrop/internal/engine"
	"github.com/bamsammich/flashdrop/internal/event"
	"github.com/bamsammich/flashdrop/internal/filter"
	"github.com/bamsammich/flashdrop/internal/link"
	"github.com/bamsammich/flashdrop/internal/stats"
	"github.com/bamsammich/flashdrop/internal/ui"
)

type serveFlags struct {
	store       storeFlags
	listen      string
	metricsAddr string
	base        string
	maxFileSize string
	baud        int
	firstSlot   int
	compress    bool
	echo        bool
	verify      bool
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the receive/echo loop",
		Long: `Run the device side of the link until interrupted.

Each cycle checks free space, waits for one file, stores it as yfile-N.bin
under --base, prints a listing of the slot files, then (unless --echo=false)
waits for a client to pull the file back. Leftover slot files from a previous
run are removed at startup.

The link address is recorded in a discovery file so push and pull on the same
machine work without --addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd, &f)
		},
	}

	f.store.register(cmd)
	cmd.Flags().StringVar(&f.listen, "listen", config.DefaultListen, "link listen address (host:port)")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().StringVar(&f.base, "base", "/", "slot directory inside the store")
	cmd.Flags().StringVar(&f.maxFileSize, "max-file-size", "", "per-file ceiling (default: store size minus 8 KiB)")
	cmd.Flags().IntVar(&f.baud, "baud", 0, "throttle the link to this serial rate (0 = unlimited)")
	cmd.Flags().IntVar(&f.firstSlot, "first-slot", 1, "number of the first slot")
	cmd.Flags().BoolVar(&f.compress, "compress", false, "zstd-compress the link (both peers must agree)")
	cmd.Flags().BoolVar(&f.echo, "echo", true, "send every received file back")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "hash every received slot (BLAKE3)")
	return cmd
}

// engineConfig merges config file values with flags that were set
// explicitly.
func (a *app) engineConfig(cmd *cobra.Command, f *serveFlags) (engine.Config, link.Options, error) {
	ec, err := a.cfg.Engine()
	if err != nil {
		return engine.Config{}, link.Options{}, err
	}
	lopts, err := a.cfg.LinkOptions()
	if err != nil {
		return engine.Config{}, link.Options{}, err
	}

	changed := cmd.Flags().Changed
	if changed("base") {
		ec.BasePath = f.base
	}
	if changed("max-file-size") {
		n, err := filter.ParseSize(f.maxFileSize)
		if err != nil {
			return engine.Config{}, link.Options{}, fmt.Errorf("invalid --max-file-size: %w", err)
		}
		ec.MaxFileSize = uint64(n) //nolint:gosec // G115: ParseSize rejects negatives
	}
	if changed("first-slot") {
		if f.firstSlot < 1 {
			return engine.Config{}, link.Options{}, errors.New("--first-slot must be at least 1")
		}
		ec.FirstSlot = f.firstSlot
	}
	if changed("echo") {
		ec.Echo = f.echo
	}
	if changed("verify") {
		ec.Verify = f.verify
	}
	if changed("baud") {
		if f.baud < 0 {
			return engine.Config{}, link.Options{}, errors.New("--baud must not be negative")
		}
		lopts.Baud = f.baud
	}
	if changed("compress") {
		lopts.Compress = f.compress
	}
	if !changed("listen") {
		f.listen = a.cfg.ListenAddr()
	}
	if !changed("metrics-addr") {
		f.metricsAddr = a.cfg.MetricsAddr()
	}
	return ec, lopts, nil
}

//nolint:revive // cognitive-complexity: wires every component of the loop
func (a *app) runServe(cmd *cobra.Command, f *serveFlags) error {
	ec, lopts, err := a.engineConfig(cmd, f)
	if err != nil {
		return err
	}

	st, err := a.openStore(cmd, &f.store, true)
	if err != nil {
		return err
	}
	defer st.Close()

	port, err := link.Listen(f.listen, lopts, a.logger)
	if err != nil {
		return err
	}
	defer port.Close()
	a.logger.Info("link listening", "addr", port.Addr().String(), "store", st.label, "base", ec.BasePath)

	if err := config.WriteDiscovery(config.Discovery{
		Addr:     port.Addr().String(),
		Root:     st.label,
		PID:      os.Getpid(),
		Baud:     lopts.Baud,
		Compress: lopts.Compress,
	}); err != nil {
		a.logger.Warn("failed to write discovery file", "error", err)
	}
	defer config.RemoveDiscovery()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)
	ec.Events = events
	ec.Stats = collector
	ec.Logger = a.logger
	ec.Out = a.stdout
	if a.quiet {
		ec.Out = io.Discard
	}

	presenter := ui.NewPresenter(ui.Config{
		Writer:  a.stderr,
		Stats:   collector,
		IsTTY:   ui.IsTTY(os.Stderr.Fd()),
		Quiet:   a.quiet,
		Verbose: a.verbose,
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		link.HandleEvents(ctx, port.Events(), port, a.logger)
	}()
	go func() {
		defer wg.Done()
		if err := presenter.Run(events); err != nil {
			a.logger.Warn("presenter failed", "error", err)
		}
	}()

	var metricsSrv *http.Server
	if f.metricsAddr != "" {
		metricsSrv, err = a.startMetrics(f.metricsAddr, collector)
		if err != nil {
			stop()
			close(events)
			wg.Wait()
			return err
		}
	}

	orch := engine.New(st.fs, link.NewService(port, a.logger), ec)
	runErr := orch.Run(ctx)

	stop()
	close(events)
	wg.Wait()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx) //nolint:errcheck // best-effort on exit
		cancel()
	}

	if !a.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(a.stderr, summary)
		}
	}
	a.logger.Debug("final counters", "stats", collector.Snapshot().String())

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func (a *app) startMetrics(addr string, c *stats.Collector) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	if err := stats.Register(reg, c); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", stats.Handler(reg))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("metrics server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()
	return srv, nil
}
