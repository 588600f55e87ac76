// Package kpi computes metric bundles and breakdowns over a filtered view.
// Every function is pure and returns zero for ratios with an empty denominator.
package kpi

import (
	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

var hundred = decimal.NewFromInt(100)

// TopN is the size of the breach breakdown lists in the operations bundle.
const TopN = 3

func safeRatio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// pct returns num / den * 100, or zero for an empty denominator.
func pct(num, den decimal.Decimal) decimal.Decimal {
	return safeRatio(num.Mul(hundred), den)
}

func pctInt(num, den int) decimal.Decimal {
	return pct(decimal.NewFromInt(int64(num)), decimal.NewFromInt(int64(den)))
}

func mean(sum decimal.Decimal, n int) decimal.Decimal {
	return safeRatio(sum, decimal.NewFromInt(int64(n)))
}

func deliveredRevenue(orders []entity.Order) (revenue decimal.Decimal, count int) {
	revenue = decimal.Zero
	for _, o := range orders {
		if o.IsDelivered() {
			revenue = revenue.Add(o.NetAmount)
			count++
		}
	}
	return revenue, count
}

// Growth computes the growth bundle over orders. previous holds the orders of
// the comparison period and may be empty.
func Growth(orders, previous []entity.Order) entity.GrowthMetrics {
	revenue, delivered := deliveredRevenue(orders)
	prevRevenue, _ := deliveredRevenue(previous)

	g := entity.GrowthMetrics{
		TotalRevenue:    revenue,
		PreviousRevenue: prevRevenue,
		RevenueChange:   decimal.Zero,
		AOV:             mean(revenue, delivered),
		TotalOrders:     len(orders),
		DeliveredOrders: delivered,
	}
	if prevRevenue.IsPositive() {
		g.RevenueChange = pct(revenue.Sub(prevRevenue), prevRevenue)
	}

	perCustomer := make(map[string]int)
	gross, discount := decimal.Zero, decimal.Zero
	for _, o := range orders {
		perCustomer[o.CustomerID]++
		gross = gross.Add(o.GrossAmount)
		discount = discount.Add(o.DiscountAmount)
	}
	repeat := 0
	for _, n := range perCustomer {
		if n >= 2 {
			repeat++
		}
	}
	g.ActiveCustomers = len(perCustomer)
	g.RepeatRate = pctInt(repeat, len(perCustomer))
	g.DiscountRate = pct(discount, gross)
	return g
}

// Operations computes the operations bundle. Fulfillment rows without an
// actual delivery date are outside the on-time and breach counts.
func Operations(orders []entity.Order, fulfillment []entity.Fulfillment, returns []entity.Return) entity.OperationsMetrics {
	var observed, onTime int
	zones, partners, reasons := newCounter(), newCounter(), newCounter()
	for i := range fulfillment {
		f := &fulfillment[i]
		if !f.Observed() {
			continue
		}
		observed++
		if f.OnTime() {
			onTime++
			continue
		}
		zones.add(f.DeliveryZone)
		partners.add(f.DeliveryPartner)
		if f.DelayReason != "" && f.DelayReason != entity.NoDelay {
			reasons.add(f.DelayReason)
		}
	}

	revenue, delivered := deliveredRevenue(orders)
	cancelled := 0
	net := decimal.Zero
	for _, o := range orders {
		if o.IsCancelled() {
			cancelled++
		}
		net = net.Add(o.NetAmount)
	}

	refunds := decimal.Zero
	for _, r := range returns {
		if r.IsProcessed() {
			refunds = refunds.Add(r.RefundAmount)
		}
	}

	return entity.OperationsMetrics{
		OnTimeRate:         pctInt(onTime, observed),
		SLABreachCount:     observed - onTime,
		TopBreachZones:     zones.top(TopN),
		TopBreachPartners:  partners.top(TopN),
		TopDelayReasons:    reasons.top(TopN),
		CancellationRate:   pctInt(cancelled, len(orders)),
		TotalRefunds:       refunds,
		RefundPercentage:   pct(refunds, revenue),
		TotalOrders:        len(orders),
		CancelledOrders:    cancelled,
		DeliveredOrders:    delivered,
		ObservedDeliveries: observed,
		OnTimeCount:        onTime,
		AvgOrderValue:      mean(net, len(orders)),
		ReturnsCount:       len(returns),
		ReturnRate:         pctInt(len(returns), len(orders)),
	}
}
