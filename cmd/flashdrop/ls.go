package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/flashdrop/internal/filter"
	"github.com/bamsammich/flashdrop/internal/listing"
	"github.com/bamsammich/flashdrop/internal/store"
)

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

var _ pflag.Value = (*filterFlag)(nil)

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "pattern" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

func newLsCmd(a *app) *cobra.Command {
	var (
		sf         storeFlags
		pattern    string
		filterFile string
		minSize    string
		maxSize    string
	)
	chain := filter.NewChain()

	cmd := &cobra.Command{
		Use:   "ls [dir]",
		Short: "List a store directory the way the device prints it",
		Long: `List a store directory as a table of type, size, date and name, followed by the
total size and the store's free space.

--pattern is matched against each entry's full store path ("/dir/name") with
shell glob rules: '*' and '?' do not match a leading '.'. --exclude and
--include rules apply afterwards, first match wins.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "/"
			if len(args) == 1 {
				dir = args[0]
			}
			clean, err := store.Clean(dir)
			if err != nil {
				return fmt.Errorf("%s: %w", dir, err)
			}

			if pattern != "" {
				if err := filter.Validate(pattern, 0); err != nil {
					return fmt.Errorf("--pattern: %w", err)
				}
			}
			if filterFile != "" {
				if err := chain.LoadFile(filterFile); err != nil {
					return fmt.Errorf("load filter file: %w", err)
				}
			}
			if err := setSizeFilters(chain, minSize, maxSize); err != nil {
				return err
			}

			st, err := a.openStore(cmd, &sf, false)
			if err != nil {
				return err
			}
			defer st.Close()

			l := &listing.Lister{FS: st.fs, Out: a.stdout, Logger: a.logger}
			if !chain.Empty() {
				l.Chain = chain
			}
			sum, err := l.List(clean, pattern)
			if errors.Is(err, listing.ErrDirectoryUnavailable) {
				a.logger.Error("list failed", "dir", clean, "error", err)
				return &exitError{code: 1}
			}
			if err != nil {
				return err
			}
			a.logger.Debug("listed", "files", sum.Files, "dirs", sum.Dirs, "bytes", sum.TotalBytes)
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "only list entries whose full path matches PATTERN")
	cmd.Flags().Var(&filterFlag{chain: chain}, "exclude", "exclude entries matching PATTERN (repeatable)")
	cmd.Flags().Var(&filterFlag{chain: chain, include: true}, "include", "include entries matching PATTERN (repeatable)")
	cmd.Flags().StringVar(&filterFile, "filter", "", "read filter rules from FILE")
	cmd.Flags().StringVar(&minSize, "min-size", "", "skip files smaller than SIZE (e.g. 1K)")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "skip files larger than SIZE (e.g. 1M)")
	return cmd
}

func setSizeFilters(chain *filter.Chain, minSize, maxSize string) error {
	if minSize != "" {
		n, err := filter.ParseSize(minSize)
		if err != nil {
			return fmt.Errorf("invalid --min-size: %w", err)
		}
		chain.SetMinSize(n)
	}
	if maxSize != "" {
		n, err := filter.ParseSize(maxSize)
		if err != nil {
			return fmt.Errorf("invalid --max-size: %w", err)
		}
		chain.SetMaxSize(n)
	}
	return nil
}
