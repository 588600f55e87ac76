package whatif

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
)

var npsBound = decimal.NewFromInt(100)

// BaselineFrom assembles a projection baseline from the two KPI bundles.
// NPS is not derivable from the tables and is supplied by configuration.
func BaselineFrom(g entity.GrowthMetrics, ops entity.OperationsMetrics, nps decimal.Decimal) entity.Baseline {
	return entity.Baseline{
		OnTimeRate:       ops.OnTimeRate,
		CancellationRate: ops.CancellationRate,
		ReturnRate:       ops.ReturnRate,
		NPS:              nps,
		TotalRefunds:     ops.TotalRefunds,
		RepeatRate:       g.RepeatRate,
		AvgOrderValue:    ops.AvgOrderValue,
		CancelledOrders:  ops.CancelledOrders,
		ActiveCustomers:  g.ActiveCustomers,
		SLABreachCount:   ops.SLABreachCount,
	}
}

func (m *Model) driverValue(b entity.Baseline) decimal.Decimal {
	return b.OnTimeRate
}

// ProjectTarget projects the baseline to an absolute driver target.
func (m *Model) ProjectTarget(b entity.Baseline, target decimal.Decimal) (entity.Projection, error) {
	d0 := m.driverValue(b)
	if !target.GreaterThan(d0) {
		return entity.Projection{}, fmt.Errorf("%w: target %s must exceed current %s", gerr.ErrInvalidDelta, target, d0.Round(2))
	}
	return m.Project(b, target.Sub(d0))
}

// Project moves the driver by delta points and translates the dependent
// metrics into a financial impact.
func (m *Model) Project(b entity.Baseline, delta decimal.Decimal) (entity.Projection, error) {
	d0 := m.driverValue(b)
	if err := m.validDelta(d0, delta); err != nil {
		return entity.Projection{}, err
	}

	next := entity.ProjectedMetrics{
		OnTimeRate:       clampDec(d0.Add(delta), decimal.Zero, hundred),
		CancellationRate: clampDec(m.respond(MetricCancellationRate, b.CancellationRate, delta), decimal.Zero, hundred),
		ReturnRate:       clampDec(m.respond(MetricReturnRate, b.ReturnRate, delta), decimal.Zero, hundred),
		NPS:              clampDec(m.respond(MetricNPS, b.NPS, delta), npsBound.Neg(), npsBound),
		TotalRefunds:     decimal.Max(decimal.Zero, m.respond(MetricRefunds, b.TotalRefunds, delta)),
		RepeatRate:       clampDec(m.respond(MetricRepeatRate, b.RepeatRate, delta), decimal.Zero, hundred),
	}

	var fin entity.FinancialImpact
	fin.OrdersRecovered = recovered(b.CancelledOrders, b.CancellationRate.Sub(next.CancellationRate), b.CancellationRate)
	fin.RevenueRecovered = decimal.NewFromInt(fin.OrdersRecovered).Mul(b.AvgOrderValue).Round(2)
	fin.NewRepeatCustomers = recovered(b.ActiveCustomers, next.RepeatRate.Sub(b.RepeatRate), b.RepeatRate)
	fin.RepeatRevenue = decimal.NewFromInt(fin.NewRepeatCustomers).Mul(b.AvgOrderValue).Round(2)
	fin.RefundSavings = decimal.Max(decimal.Zero, b.TotalRefunds.Sub(next.TotalRefunds)).Round(2)
	fin.TotalBenefit = fin.RevenueRecovered.Add(fin.RepeatRevenue).Add(fin.RefundSavings)
	fin.InvestmentCost = delta.Mul(m.CostPerPoint).Round(2)
	fin.NetBenefit = fin.TotalBenefit.Sub(fin.InvestmentCost)
	if fin.InvestmentCost.IsPositive() {
		fin.ROI = fin.NetBenefit.Div(fin.InvestmentCost).Mul(hundred).Round(2)
	}

	return entity.Projection{
		Driver:    m.Driver,
		Delta:     delta,
		Current:   rounded(current(b)),
		Projected: rounded(next),
		Financial: fin,
	}, nil
}

// Sweep evaluates Project for every whole delta from 1 up to MaxSweepDelta
// while the target stays at or below MaxSweepTarget.
func (m *Model) Sweep(b entity.Baseline) ([]entity.SweepRow, error) {
	d0 := m.driverValue(b)
	last := int(decimal.NewFromInt(MaxSweepTarget).Sub(d0).Floor().IntPart())
	last = min(max(last, 0), MaxSweepDelta)

	rows := make([]entity.SweepRow, 0, last)
	for i := 1; i <= last; i++ {
		delta := decimal.NewFromInt(int64(i))
		p, err := m.Project(b, delta)
		if err != nil {
			return nil, fmt.Errorf("sweep at delta %d: %w", i, err)
		}
		rows = append(rows, entity.SweepRow{
			Delta:          delta,
			Target:         p.Projected.OnTimeRate,
			TotalBenefit:   p.Financial.TotalBenefit,
			InvestmentCost: p.Financial.InvestmentCost,
			NetBenefit:     p.Financial.NetBenefit,
			ROI:            p.Financial.ROI,
		})
	}
	return rows, nil
}

func current(b entity.Baseline) entity.ProjectedMetrics {
	return entity.ProjectedMetrics{
		OnTimeRate:       b.OnTimeRate,
		CancellationRate: b.CancellationRate,
		ReturnRate:       b.ReturnRate,
		NPS:              b.NPS,
		TotalRefunds:     b.TotalRefunds,
		RepeatRate:       b.RepeatRate,
	}
}

func rounded(p entity.ProjectedMetrics) entity.ProjectedMetrics {
	return entity.ProjectedMetrics{
		OnTimeRate:       p.OnTimeRate.Round(2),
		CancellationRate: p.CancellationRate.Round(2),
		ReturnRate:       p.ReturnRate.Round(2),
		NPS:              p.NPS.Round(2),
		TotalRefunds:     p.TotalRefunds.Round(2),
		RepeatRate:       p.RepeatRate.Round(2),
	}
}

// recovered returns floor(count * part / whole), 0 when whole or part is not positive.
func recovered(count int, part, whole decimal.Decimal) int64 {
	if count <= 0 || !whole.IsPositive() || !part.IsPositive() {
		return 0
	}
	return decimal.NewFromInt(int64(count)).Mul(part).Div(whole).Floor().IntPart()
}
