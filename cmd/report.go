package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jekabolt/grbpwr-analytics/app"
	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

type filterFlags struct {
	from       string
	to         string
	cities     []string
	channels   []string
	categories []string
	segments   []string
	statuses   []string
	tiers      []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.from, "from", "", "start date, YYYY-MM-DD")
	fs.StringVar(&f.to, "to", "", "end date, YYYY-MM-DD")
	fs.StringSliceVar(&f.cities, "city", nil, "cities to include")
	fs.StringSliceVar(&f.channels, "channel", nil, "order channels to include")
	fs.StringSliceVar(&f.categories, "category", nil, "product categories to include")
	fs.StringSliceVar(&f.segments, "segment", nil, "customer segments to include")
	fs.StringSliceVar(&f.statuses, "status", nil, "order statuses to include")
	fs.StringSliceVar(&f.tiers, "tier", nil, "customer tiers to include")
}

func (f *filterFlags) spec() (entity.FilterSpec, error) {
	spec := entity.FilterSpec{
		Cities:     f.cities,
		Channels:   f.channels,
		Categories: f.categories,
		Segments:   f.segments,
		Statuses:   f.statuses,
		Tiers:      f.tiers,
	}
	var err error
	if spec.Start, err = parseDay(f.from); err != nil {
		return spec, fmt.Errorf("--from: %w", err)
	}
	if spec.End, err = parseDay(f.to); err != nil {
		return spec, fmt.Errorf("--to: %w", err)
	}
	return spec, spec.Validate()
}

func parseDay(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(entity.DateLayout, v)
}

func newReportCmd() *cobra.Command {
	var (
		filter      filterFlags
		granularity string
		target      string
		sweep       bool
		pretty      bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Clean the configured source and print a dashboard as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := filter.spec()
			if err != nil {
				return err
			}
			g := entity.MetricsGranularityDay
			switch strings.ToLower(granularity) {
			case "", "day":
			case "week":
				g = entity.MetricsGranularityWeek
			default:
				return fmt.Errorf("--granularity must be day or week, got %q", granularity)
			}

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
			if _, err := svc.Reload(ctx); err != nil {
				return err
			}

			var out any
			switch {
			case target != "":
				t, err := decimal.NewFromString(target)
				if err != nil {
					return fmt.Errorf("--whatif-target: %w", err)
				}
				if out, err = svc.WhatIf(ctx, spec, t); err != nil {
					return err
				}
			case sweep:
				if out, err = svc.Sweep(ctx, spec); err != nil {
					return err
				}
			default:
				if out, err = svc.Compute(ctx, spec, g); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), out, pretty)
		},
	}
	filter.register(cmd)
	cmd.Flags().StringVar(&granularity, "granularity", "day", "revenue trend bucket, day or week")
	cmd.Flags().StringVar(&target, "whatif-target", "", "print the projection to this on-time rate instead")
	cmd.Flags().BoolVar(&sweep, "sweep", false, "print the what-if sensitivity curve instead")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
