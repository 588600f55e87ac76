package whatif

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

func genBaseline() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100000),
		gen.Float64Range(0, 5000),
		gen.IntRange(0, 5000),
		gen.IntRange(0, 5000),
	).Map(func(v []any) entity.Baseline {
		return entity.Baseline{
			OnTimeRate:       decimal.NewFromFloat(v[0].(float64)).Round(2),
			CancellationRate: decimal.NewFromFloat(v[1].(float64)).Round(2),
			RepeatRate:       decimal.NewFromFloat(v[2].(float64)).Round(2),
			ReturnRate:       decimal.NewFromFloat(v[1].(float64) / 2).Round(2),
			NPS:              decimal.NewFromInt(30),
			TotalRefunds:     decimal.NewFromFloat(v[3].(float64)).Round(2),
			AvgOrderValue:    decimal.NewFromFloat(v[4].(float64)).Round(2),
			CancelledOrders:  v[5].(int),
			ActiveCustomers:  v[6].(int),
		}
	})
}

func TestSweep_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)
	m := Default()

	properties.Property("benefit and investment are non-decreasing in delta", prop.ForAll(
		func(b entity.Baseline) bool {
			rows, err := m.Sweep(b)
			if err != nil {
				return false
			}
			for i := 1; i < len(rows); i++ {
				if rows[i].TotalBenefit.LessThan(rows[i-1].TotalBenefit) {
					return false
				}
				if rows[i].InvestmentCost.LessThan(rows[i-1].InvestmentCost) {
					return false
				}
			}
			return true
		},
		genBaseline(),
	))

	properties.Property("sweep rows match single-point projections", prop.ForAll(
		func(b entity.Baseline) bool {
			rows, err := m.Sweep(b)
			if err != nil {
				return false
			}
			for _, r := range rows {
				p, err := m.Project(b, r.Delta)
				if err != nil {
					return false
				}
				if !p.Financial.TotalBenefit.Equal(r.TotalBenefit) ||
					!p.Financial.InvestmentCost.Equal(r.InvestmentCost) ||
					!p.Financial.NetBenefit.Equal(r.NetBenefit) ||
					!p.Financial.ROI.Equal(r.ROI) {
					return false
				}
			}
			return true
		},
		genBaseline(),
	))

	properties.Property("projected rates stay within bounds", prop.ForAll(
		func(b entity.Baseline, delta int) bool {
			p, err := m.Project(b, decimal.NewFromInt(int64(delta)))
			if err != nil {
				return b.OnTimeRate.Add(decimal.NewFromInt(int64(delta))).GreaterThan(hundred)
			}
			for _, v := range []decimal.Decimal{p.Projected.CancellationRate, p.Projected.RepeatRate, p.Projected.ReturnRate, p.Projected.OnTimeRate} {
				if v.IsNegative() || v.GreaterThan(hundred) {
					return false
				}
			}
			return p.Financial.OrdersRecovered <= int64(b.CancelledOrders) && !p.Projected.TotalRefunds.IsNegative()
		},
		genBaseline(),
		gen.IntRange(1, 40),
	))

	properties.TestingRun(t)
}
