package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"caterer/internal/catalog"
	"caterer/internal/report"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cmd.Context(), cfg.Paths.Catalog, catalog.Options{MaxOpenConns: 1})
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog: %s\n", stats.Path)
			rows := [][]string{
				{"Works", humanize.Comma(stats.Works)},
				{"Sub-works", humanize.Comma(stats.SubWorks)},
				{"Persons", humanize.Comma(stats.Persons)},
				{"Credits", humanize.Comma(stats.Credits)},
			}
			fmt.Fprint(out, report.Table(
				[]string{"Table", "Rows"},
				rows,
				[]report.Alignment{report.AlignLeft, report.AlignRight},
			))
			return nil
		},
	}
}
