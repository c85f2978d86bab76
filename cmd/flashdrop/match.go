package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bamsammich/flashdrop/internal/filter"
)

type matchFlags struct {
	noEscape   bool
	pathname   bool
	period     bool
	leadingDir bool
	caseFold   bool
	prefixDirs bool
}

func (f matchFlags) flags() filter.Flags {
	var fl filter.Flags
	set := []struct {
		on   bool
		flag filter.Flags
	}{
		{f.noEscape, filter.NoEscape},
		{f.pathname, filter.Pathname},
		{f.period, filter.Period},
		{f.leadingDir, filter.LeadingDir},
		{f.caseFold, filter.CaseFold},
		{f.prefixDirs, filter.PrefixDirs},
	}
	for _, s := range set {
		if s.on {
			fl |= s.flag
		}
	}
	return fl
}

func newMatchCmd(a *app) *cobra.Command {
	var f matchFlags

	cmd := &cobra.Command{
		Use:   "match PATTERN STRING...",
		Short: "Test strings against a glob pattern",
		Long: `Test each STRING against PATTERN and print "match" or "no match".

Exits 0 when every string matches, 1 when any does not, and 2 when the
pattern is malformed.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			pattern, fl := args[0], f.flags()
			allMatched := true
			for _, s := range args[1:] {
				ok, err := filter.Match(pattern, s, fl)
				if errors.Is(err, filter.ErrMalformedPattern) {
					return fmt.Errorf("pattern %q: %w", pattern, err)
				}
				result := "match"
				if !ok {
					result = "no match"
					allMatched = false
				}
				fmt.Fprintf(a.stdout, "%s\t%s\n", s, result)
			}
			if !allMatched {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&f.noEscape, "noescape", false, "treat backslash as a literal character")
	cmd.Flags().BoolVar(&f.pathname, "pathname", false, "wildcards do not match '/'")
	cmd.Flags().BoolVar(&f.period, "period", false, "a leading '.' must be matched explicitly")
	cmd.Flags().BoolVar(&f.leadingDir, "leading-dir", false, "ignore a trailing /... after a match")
	cmd.Flags().BoolVar(&f.caseFold, "casefold", false, "compare ASCII letters case-insensitively")
	cmd.Flags().BoolVar(&f.prefixDirs, "prefix-dirs", false, "accept parent directories of a match")
	return cmd
}
