package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"caterer/internal/catalog"
	"caterer/internal/report"
	"caterer/internal/search"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		top     int
		workers int
	)

	cmd := &cobra.Command{
		Use:   "search <work-id> [work-id...]",
		Short: "Rank works that share stylistic collaborators with the given works",
		Example: `  caterer search tt0903747
  caterer search --top 20 tt0306414 0903747`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ids, err := search.ParseWorkIDs(args, cfg.Search.IDPrefix)
			if err != nil {
				return err
			}
			color, err := ctx.colorize(cmd)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			if top <= 0 {
				top = cfg.Search.Top
			}
			if workers <= 0 {
				workers = cfg.Search.Workers
			}

			store, err := catalog.Open(cmd.Context(), cfg.Paths.Catalog, catalog.Options{MaxOpenConns: workers})
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := search.New(store, search.Options{
				Workers: workers,
				Top:     top,
				Logger:  logger,
			}).Run(cmd.Context(), ids)
			if err != nil {
				return err
			}

			renderer := report.Renderer{Color: color, IDPrefix: cfg.Search.IDPrefix}
			out := cmd.OutOrStdout()
			if err := renderer.Summary(out, result); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if err := renderer.Affinities(out, result.Ranked); err != nil {
				return fmt.Errorf("write results: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 0, "Number of ranked works to print (defaults to search.top)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent candidate lookups (defaults to search.workers)")
	return cmd
}
