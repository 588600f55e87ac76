package kpi

import (
	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

var (
	healthyDiscountRate = decimal.NewFromInt(15)
	loyalRepeatRate     = decimal.NewFromInt(30)
	premiumAOV          = decimal.NewFromInt(400)
	onTimeTarget        = decimal.NewFromInt(85)
)

// Insights builds the executive summary. cityRevenue and channels are
// expected in the order returned by RevenueByCity and ChannelContribution.
func Insights(g entity.GrowthMetrics, ops entity.OperationsMetrics, cityRevenue []entity.CityRevenue, channels []entity.ChannelShare) []entity.Insight {
	var out []entity.Insight
	if len(cityRevenue) > 0 {
		out = append(out, entity.Insight{
			Kind:    entity.InsightTopCity,
			Subject: cityRevenue[0].City,
			Value:   cityRevenue[0].Revenue,
			Healthy: true,
		})
	}
	if len(channels) > 0 {
		out = append(out, entity.Insight{
			Kind:    entity.InsightChannelShare,
			Subject: channels[0].Channel,
			Value:   channels[0].SharePct,
			Healthy: true,
		})
	}
	return append(out,
		entity.Insight{Kind: entity.InsightDiscountHealth, Value: g.DiscountRate, Healthy: g.DiscountRate.LessThan(healthyDiscountRate)},
		entity.Insight{Kind: entity.InsightLoyalty, Value: g.RepeatRate, Healthy: g.RepeatRate.GreaterThan(loyalRepeatRate)},
		entity.Insight{Kind: entity.InsightPremiumAOV, Value: g.AOV, Healthy: g.AOV.GreaterThan(premiumAOV)},
		entity.Insight{Kind: entity.InsightOnTimeTarget, Value: ops.OnTimeRate, Healthy: ops.OnTimeRate.GreaterThan(onTimeTarget)},
	)
}

// Compare pairs headline metrics of the current and previous period.
func Compare(cur, prev entity.GrowthMetrics, hasPrevious bool) map[string]entity.MetricWithComparison {
	pairs := map[string][2]decimal.Decimal{
		"total_revenue":    {cur.TotalRevenue, prev.TotalRevenue},
		"total_orders":     {decimal.NewFromInt(int64(cur.TotalOrders)), decimal.NewFromInt(int64(prev.TotalOrders))},
		"aov":              {cur.AOV, prev.AOV},
		"repeat_rate":      {cur.RepeatRate, prev.RepeatRate},
		"discount_rate":    {cur.DiscountRate, prev.DiscountRate},
		"active_customers": {decimal.NewFromInt(int64(cur.ActiveCustomers)), decimal.NewFromInt(int64(prev.ActiveCustomers))},
	}
	out := make(map[string]entity.MetricWithComparison, len(pairs))
	for k, v := range pairs {
		m := entity.MetricWithComparison{Value: v[0]}
		if hasPrevious {
			m.CompareValue = ptr(v[1])
			m.ChangePct = changePct(v[0], v[1])
		}
		out[k] = m
	}
	return out
}

func changePct(current, previous decimal.Decimal) *float64 {
	if previous.IsZero() {
		return nil
	}
	diff := current.Sub(previous).Div(previous).Mul(hundred)
	f, _ := diff.Float64()
	return &f
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
