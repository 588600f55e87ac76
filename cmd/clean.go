package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jekabolt/grbpwr-analytics/app"
	"github.com/jekabolt/grbpwr-analytics/internal/csvsource"
)

func newCleanCmd() *cobra.Command {
	var (
		out    string
		report bool
	)
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the configured source and write the canonical tables as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			src, db, err := app.OpenSource(ctx, cfg)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}
			svc, err := app.NewService(cfg, src, db)
			if err != nil {
				return err
			}
			snap, err := svc.Reload(ctx)
			if err != nil {
				return err
			}
			if err := csvsource.WriteDir(out, snap.Tables.ToRaw()); err != nil {
				return err
			}
			slog.Default().InfoContext(ctx, "canonical tables written",
				slog.String("dir", out),
				slog.Any("counts", snap.Counts),
			)
			if report {
				return writeJSON(cmd.OutOrStdout(), snap.Report, true)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "clean", "output directory")
	cmd.Flags().BoolVar(&report, "report", false, "print the data-quality report")
	return cmd
}
