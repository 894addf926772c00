package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"caterer/internal/config"
	"caterer/internal/faults"
	"caterer/internal/ingest"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var (
		datasetDir string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the catalog from the IMDb TSV dumps",
		Long: `Build loads title.basics, title.episode, title.ratings, name.basics and
title.principals (plain .tsv or gzipped .tsv.gz) into a fresh catalog. The
previous catalog stays in place until the new one is complete.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			dir := cfg.Paths.DatasetDir
			if trimmed := strings.TrimSpace(datasetDir); trimmed != "" {
				dir, err = config.ExpandPath(trimmed)
				if err != nil {
					return faults.Wrap(faults.ErrConfiguration, "cli", "dataset flag", trimmed, err)
				}
			}

			var progress io.Writer
			if cfg.Ingest.Progress && !noProgress && shouldColorize(cmd.ErrOrStderr()) {
				progress = cmd.ErrOrStderr()
			}

			stats, err := ingest.Build(cmd.Context(), ingest.Options{
				DatasetDir: dir,
				Catalog:    cfg.Paths.Catalog,
				BatchSize:  cfg.Ingest.BatchSize,
				Progress:   progress,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog written to %s\n", cfg.Paths.Catalog)
			fmt.Fprintln(out, stats.Summary())
			if dropped := stats.DroppedLinks + stats.DroppedRatings + stats.DroppedCredits; dropped > 0 {
				fmt.Fprintf(out, "Dropped %d rows referencing unknown works or persons\n", dropped)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetDir, "dataset", "d", "", "Directory holding the TSV dumps (defaults to paths.dataset_dir)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bars")
	return cmd
}
