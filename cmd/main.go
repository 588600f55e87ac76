package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "grbpwr-analytics",
		Short: "Service to serve grbpwr-analytics dashboards",
		RunE:  run,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the grbpwr-analytics service version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	cfgFile string
	version string
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to configuration file (optional)")
	rootCmd.AddCommand(versionCmd, newReportCmd(), newImportCmd(), newCleanCmd())
	if err := rootCmd.Execute(); err != nil {
		slog.Default().Error("can't run grbpwr-analytics", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
