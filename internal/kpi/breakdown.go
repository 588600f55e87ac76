package kpi

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

func cityOf(customers []entity.Customer) map[string]string {
	m := make(map[string]string, len(customers))
	for _, c := range customers {
		m[c.CustomerID] = c.City
	}
	return m
}

// RevenueByCity sums delivered net revenue by customer city, highest first.
// Orders of unknown customers are not attributed.
func RevenueByCity(orders []entity.Order, customers []entity.Customer) []entity.CityRevenue {
	cities := cityOf(customers)
	idx := make(map[string]int)
	out := []entity.CityRevenue{}
	for _, o := range orders {
		if !o.IsDelivered() {
			continue
		}
		city, ok := cities[o.CustomerID]
		if !ok {
			continue
		}
		i, ok := idx[city]
		if !ok {
			i = len(out)
			idx[city] = i
			out = append(out, entity.CityRevenue{City: city, Revenue: decimal.Zero})
		}
		out[i].Revenue = out[i].Revenue.Add(o.NetAmount)
		out[i].Orders++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].City < out[j].City
	})
	return out
}

// ChannelContribution returns order count, net revenue and share of orders per channel.
func ChannelContribution(orders []entity.Order) []entity.ChannelShare {
	idx := make(map[string]int)
	out := []entity.ChannelShare{}
	for _, o := range orders {
		i, ok := idx[o.Channel]
		if !ok {
			i = len(out)
			idx[o.Channel] = i
			out = append(out, entity.ChannelShare{Channel: o.Channel, Revenue: decimal.Zero})
		}
		out[i].Orders++
		out[i].Revenue = out[i].Revenue.Add(o.NetAmount)
	}
	for i := range out {
		out[i].SharePct = pctInt(out[i].Orders, len(orders)).Round(1)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Orders != out[j].Orders {
			return out[i].Orders > out[j].Orders
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}

// CategoryRevenueByCity sums item totals by customer city and product category.
func CategoryRevenueByCity(orders []entity.Order, customers []entity.Customer, items []entity.OrderItem) []entity.CategoryCityRevenue {
	cities := cityOf(customers)
	orderCity := make(map[string]string, len(orders))
	for _, o := range orders {
		if city, ok := cities[o.CustomerID]; ok {
			orderCity[o.OrderID] = city
		}
	}
	type key struct{ city, category string }
	sums := make(map[key]decimal.Decimal)
	for _, it := range items {
		city, ok := orderCity[it.OrderID]
		if !ok {
			continue
		}
		k := key{city, it.ProductCategory}
		sums[k] = sums[k].Add(it.ItemTotal)
	}
	out := make([]entity.CategoryCityRevenue, 0, len(sums))
	for k, v := range sums {
		out = append(out, entity.CategoryCityRevenue{City: k.city, Category: k.category, Revenue: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// BreachesByZone counts breached deliveries per zone, top n.
func BreachesByZone(fulfillment []entity.Fulfillment, n int) []entity.NamedCount {
	zones := newCounter()
	for i := range fulfillment {
		if fulfillment[i].Breach() {
			zones.add(fulfillment[i].DeliveryZone)
		}
	}
	return zones.top(n)
}

// DelayReasonPareto ranks delay reasons with running totals. Rows without a
// real reason are left out.
func DelayReasonPareto(fulfillment []entity.Fulfillment) []entity.ParetoRow {
	reasons := newCounter()
	total := 0
	for i := range fulfillment {
		if fulfillment[i].HasDelayReason() {
			reasons.add(fulfillment[i].DelayReason)
			total++
		}
	}
	ranked := reasons.ranked()
	out := make([]entity.ParetoRow, 0, len(ranked))
	cum := 0
	for _, r := range ranked {
		cum += r.Count
		out = append(out, entity.ParetoRow{
			Reason:          r.Name,
			Count:           r.Count,
			CumulativeCount: cum,
			CumulativePct:   pctInt(cum, total),
		})
	}
	return out
}

// ReturnRateByCategory attributes each return to the category of the lowest
// numbered item of its order. Orders per category count distinct orders with
// at least one item in it. Only categories with returns are listed.
func ReturnRateByCategory(returns []entity.Return, items []entity.OrderItem) []entity.CategoryReturnRate {
	first := make(map[string]entity.OrderItem)
	ordersIn := make(map[string]map[string]struct{})
	for _, it := range items {
		if cur, ok := first[it.OrderID]; !ok || it.LineNo < cur.LineNo {
			first[it.OrderID] = it
		}
		if ordersIn[it.ProductCategory] == nil {
			ordersIn[it.ProductCategory] = make(map[string]struct{})
		}
		ordersIn[it.ProductCategory][it.OrderID] = struct{}{}
	}

	returned := newCounter()
	for _, r := range returns {
		if it, ok := first[r.OrderID]; ok {
			returned.add(it.ProductCategory)
		}
	}

	out := make([]entity.CategoryReturnRate, 0, len(returned.order))
	for _, category := range returned.order {
		n := returned.counts[category]
		orders := len(ordersIn[category])
		out = append(out, entity.CategoryReturnRate{
			Category:   category,
			Returns:    n,
			Orders:     orders,
			ReturnRate: pctInt(n, orders).Round(2),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ReturnRate.Equal(out[j].ReturnRate) {
			return out[i].ReturnRate.GreaterThan(out[j].ReturnRate)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// PartnerPerformance returns observed deliveries, on-time and breach counts
// per delivery partner, busiest first.
func PartnerPerformance(fulfillment []entity.Fulfillment) []entity.PartnerPerformance {
	idx := make(map[string]int)
	out := []entity.PartnerPerformance{}
	for i := range fulfillment {
		f := &fulfillment[i]
		if !f.Observed() {
			continue
		}
		j, ok := idx[f.DeliveryPartner]
		if !ok {
			j = len(out)
			idx[f.DeliveryPartner] = j
			out = append(out, entity.PartnerPerformance{Partner: f.DeliveryPartner})
		}
		out[j].Deliveries++
		if f.OnTime() {
			out[j].OnTime++
		} else {
			out[j].Breaches++
		}
	}
	for i := range out {
		out[i].OnTimeRate = pctInt(out[i].OnTime, out[i].Deliveries)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Deliveries != out[j].Deliveries {
			return out[i].Deliveries > out[j].Deliveries
		}
		return out[i].Partner < out[j].Partner
	})
	return out
}
