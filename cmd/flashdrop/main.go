package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/flashdrop/internal/config"
	"github.com/bamsammich/flashdrop/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries the root flags and what PersistentPreRunE builds from them.
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	logger     *slog.Logger
	logFile    io.Closer
	cfg        config.Config
	configPath string
	logPath    string
	verbose    bool
	quiet      bool
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.logFile != nil {
		a.logFile.Close()
	}
	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:   "flashdrop",
		Short: "Receive files into a small flash store and echo them back",
		Long: `flashdrop turns a directory (or an SFTP share) into a tiny flash partition that
accepts one file per cycle over a framed link, stores it as yfile-N.bin, lists
the slot directory, and echoes the file back to the sender.

Host-side commands (push, pull) talk to a running "flashdrop serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(a.stdout, "flashdrop %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress all output except errors")
	pf.StringVar(&a.logPath, "log", "", "write structured JSON log to FILE")
	pf.StringVar(&a.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/flashdrop/config.toml)")

	rootCmd.AddCommand(
		newServeCmd(a),
		newLsCmd(a),
		newDfCmd(a),
		newMatchCmd(a),
		newPushCmd(a),
		newPullCmd(a),
		newDocsCmd(),
	)
	return rootCmd
}

// setup configures logging and loads the config file.
func (a *app) setup(cmd *cobra.Command) error {
	if a.verbose && a.quiet {
		return errors.New("--verbose and --quiet are mutually exclusive")
	}

	logLevel := slog.LevelWarn
	if a.verbose {
		logLevel = slog.LevelDebug
	} else if !a.quiet {
		logLevel = slog.LevelInfo
	}
	var handler slog.Handler = slog.NewTextHandler(a.stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	if a.logPath != "" {
		lf, err := os.Create(a.logPath)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = lf
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		handler = ui.NewMultiHandler(handler, jsonHandler)
	}
	a.logger = slog.New(handler).With("cmd", cmd.Name())
	slog.SetDefault(a.logger)

	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	ui.ApplyTheme(a.cfg.Theme)
	return nil
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
