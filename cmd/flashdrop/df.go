package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bamsammich/flashdrop/internal/filter"
	"github.com/bamsammich/flashdrop/internal/space"
)

func newDfCmd(a *app) *cobra.Command {
	var (
		sf     storeFlags
		margin string
	)

	cmd := &cobra.Command{
		Use:   "df",
		Short: "Show store capacity and the space a receive may use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ec, err := a.cfg.Engine()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("margin") {
				n, err := filter.ParseSize(margin)
				if err != nil {
					return fmt.Errorf("invalid --margin: %w", err)
				}
				ec.SpaceMargin = uint64(n) //nolint:gosec // G115: ParseSize rejects negatives
			}

			st, err := a.openStore(cmd, &sf, false)
			if err != nil {
				return err
			}
			defer st.Close()

			snap := space.NewTracker(st.fs, a.logger).Capacity()
			usable := snap.UsableFree(ec.SpaceMargin)

			fmt.Fprintf(a.stdout, "store   %s\n", st.label)
			fmt.Fprintf(a.stdout, "total   %d\n", snap.Total)
			fmt.Fprintf(a.stdout, "used    %d\n", snap.Used)
			fmt.Fprintf(a.stdout, "free    %d\n", snap.Free())
			fmt.Fprintf(a.stdout, "usable  %d (margin %d)\n", usable, ec.SpaceMargin)
			if usable <= ec.MinFree {
				fmt.Fprintf(a.stdout, "status  full (needs more than %d usable)\n", ec.MinFree)
			} else {
				fmt.Fprintln(a.stdout, "status  ready")
			}
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVar(&margin, "margin", "16K", "bytes held back from every receive")
	return cmd
}
