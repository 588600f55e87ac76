// Package dashboard wires the pure pipeline: snapshot, filter, KPIs and what-if.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/dependency"
	"github.com/jekabolt/grbpwr-analytics/internal/entity"
	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
	"github.com/jekabolt/grbpwr-analytics/internal/filter"
	"github.com/jekabolt/grbpwr-analytics/internal/kpi"
	"github.com/jekabolt/grbpwr-analytics/internal/whatif"
)

type Config struct {
	// BaselineNPS is the current net promoter score the what-if model starts from.
	BaselineNPS float64 `mapstructure:"baseline_nps"`
	// CoefficientsFile overrides the what-if coefficients, optional.
	CoefficientsFile string `mapstructure:"coefficients_file"`
}

// Service answers dashboard requests from the latest snapshot. Every call
// builds its own filtered view; the snapshot is never mutated.
type Service struct {
	source    dependency.Source
	snapshots dependency.Snapshots
	runs      dependency.CleanRunRecorder
	model     *whatif.Model
	nps       decimal.Decimal
}

// New creates a Service. runs may be nil when clean runs are not persisted.
func New(source dependency.Source, snapshots dependency.Snapshots, runs dependency.CleanRunRecorder, model *whatif.Model, c Config) *Service {
	if model == nil {
		model = whatif.Default()
	}
	return &Service{
		source:    source,
		snapshots: snapshots,
		runs:      runs,
		model:     model,
		nps:       decimal.NewFromFloat(c.BaselineNPS),
	}
}

// Reload loads the raw tables from the source and cleans them unless the
// same input was cleaned before.
func (s *Service) Reload(ctx context.Context) (*entity.Snapshot, error) {
	raw, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't load raw tables from %s: %w", s.source.Name(), err)
	}
	snap, err := s.snapshots.Get(ctx, s.source.Name(), raw)
	if err != nil {
		return nil, fmt.Errorf("can't clean raw tables: %w", err)
	}
	if s.runs != nil {
		n, err := s.runs.AddCleanRun(ctx, snap)
		if err != nil {
			// the snapshot is usable without its log entry
			slog.Default().ErrorContext(ctx, "can't record clean run",
				slog.String("snapshot_id", snap.ID.String()),
				slog.String("err", err.Error()),
			)
		} else {
			slog.Default().DebugContext(ctx, "recorded clean run", slog.Int("runs", n))
		}
	}
	return snap, nil
}

// Snapshot returns the snapshot dashboards are computed from.
func (s *Service) Snapshot() (*entity.Snapshot, error) {
	return s.snapshots.Latest()
}

// Runs lists recorded clean runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]entity.CleanRun, error) {
	if s.runs == nil {
		return []entity.CleanRun{}, nil
	}
	return s.runs.ListCleanRuns(ctx, limit)
}

// Options lists the filterable values of the whole snapshot.
func (s *Service) Options() (entity.FilterOptions, error) {
	snap, err := s.snapshots.Latest()
	if err != nil {
		return entity.FilterOptions{}, err
	}
	return filter.Options(snap.Tables), nil
}

type view struct {
	snap     *entity.Snapshot
	current  *entity.Tables
	previous *entity.Tables
}

func (s *Service) view(spec entity.FilterSpec) (*view, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Latest()
	if err != nil {
		return nil, err
	}
	cur, prev := filter.ApplyWithBaseline(snap.Tables, spec)
	return &view{snap: snap, current: cur, previous: prev}, nil
}

// Compute evaluates every metric bundle and breakdown for spec.
func (s *Service) Compute(ctx context.Context, spec entity.FilterSpec, g entity.MetricsGranularity) (*entity.Dashboard, error) {
	v, err := s.view(spec)
	if err != nil {
		return nil, err
	}
	cur, prev := v.current, v.previous

	growth := kpi.Growth(cur.Orders, prev.Orders)
	ops := kpi.Operations(cur.Orders, cur.Fulfillment, cur.Returns)
	prevSpec, hasPrevious := filter.PreviousPeriod(spec)
	cityRevenue := kpi.RevenueByCity(cur.Orders, cur.Customers)
	channels := kpi.ChannelContribution(cur.Orders)

	d := &entity.Dashboard{
		SnapshotID:     v.snap.ID,
		Filter:         spec,
		Counts:         cur.Counts(),
		Growth:         growth,
		Operations:     ops,
		Comparison:     kpi.Compare(growth, kpi.Growth(prev.Orders, nil), hasPrevious),
		RevenueTrend:   kpi.RevenueTrend(cur.Orders, g, spec.Start, spec.End),
		RevenueByCity:  cityRevenue,
		Channels:       channels,
		CategoryByCity: kpi.CategoryRevenueByCity(cur.Orders, cur.Customers, cur.OrderItems),
		BreachTrend:    kpi.BreachTrend(cur.Fulfillment),
		BreachesByZone: kpi.BreachesByZone(cur.Fulfillment, kpi.ProblemAreaLimit),
		DelayPareto:    kpi.DelayReasonPareto(cur.Fulfillment),
		ReturnRates:    kpi.ReturnRateByCategory(cur.Returns, cur.OrderItems),
		Partners:       kpi.PartnerPerformance(cur.Fulfillment),
		ProblemAreas:   kpi.ProblemAreas(cur.Fulfillment, kpi.ProblemAreaLimit),
		Insights:       kpi.Insights(growth, ops, cityRevenue, channels),
	}
	if hasPrevious {
		d.Previous = &prevSpec
	}

	slog.Default().DebugContext(ctx, "computed dashboard",
		slog.String("snapshot_id", v.snap.ID.String()),
		slog.Int("orders", len(cur.Orders)),
	)
	return d, nil
}

// DrillDown returns the operations metrics of one delivery zone within spec.
func (s *Service) DrillDown(ctx context.Context, spec entity.FilterSpec, zone string) (entity.ZoneDrillDown, error) {
	v, err := s.view(spec)
	if err != nil {
		return entity.ZoneDrillDown{}, err
	}
	if !slices.Contains(kpi.Zones(v.current.Fulfillment), zone) {
		return entity.ZoneDrillDown{}, fmt.Errorf("%w: %s", gerr.ErrUnknownZone, zone)
	}
	return kpi.ZoneDrillDown(zone, v.current.Orders, v.current.Fulfillment), nil
}

func (s *Service) baseline(spec entity.FilterSpec) (entity.Baseline, error) {
	v, err := s.view(spec)
	if err != nil {
		return entity.Baseline{}, err
	}
	cur := v.current
	growth := kpi.Growth(cur.Orders, v.previous.Orders)
	ops := kpi.Operations(cur.Orders, cur.Fulfillment, cur.Returns)
	return whatif.BaselineFrom(growth, ops, s.nps), nil
}

// WhatIf projects the filtered baseline to an on-time rate target.
func (s *Service) WhatIf(ctx context.Context, spec entity.FilterSpec, target decimal.Decimal) (entity.Projection, error) {
	b, err := s.baseline(spec)
	if err != nil {
		return entity.Projection{}, err
	}
	return s.model.ProjectTarget(b, target)
}

// Sweep returns the sensitivity curve of the filtered baseline.
func (s *Service) Sweep(ctx context.Context, spec entity.FilterSpec) ([]entity.SweepRow, error) {
	b, err := s.baseline(spec)
	if err != nil {
		return nil, err
	}
	return s.model.Sweep(b)
}

// Scenario evaluates the two-lever model on the filtered baseline.
func (s *Service) Scenario(ctx context.Context, spec entity.FilterSpec, levers entity.ScenarioLevers) (entity.ScenarioResult, error) {
	b, err := s.baseline(spec)
	if err != nil {
		return entity.ScenarioResult{}, err
	}
	return whatif.Scenario(b, levers)
}
