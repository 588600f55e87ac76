package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jekabolt/grbpwr-analytics/app"
	"github.com/jekabolt/grbpwr-analytics/internal/csvsource"
)

func newImportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the raw tables of the sql store with a directory of CSV exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			raw, err := csvsource.New(csvsource.Config{Dir: dir}).Load(ctx)
			if err != nil {
				return err
			}
			db, err := app.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.ReplaceRaw(ctx, raw); err != nil {
				return fmt.Errorf("import %s: %w", dir, err)
			}
			slog.Default().InfoContext(ctx, "raw tables imported",
				slog.String("dir", dir),
				slog.String("store", db.Name()),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data", "directory holding <table>.csv exports")
	return cmd
}
