package kpi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

func fillTimeSeriesGaps(points []entity.TimeSeriesPoint, from, to time.Time, granularity entity.MetricsGranularity) []entity.TimeSeriesPoint {
	pointMap := make(map[string]entity.TimeSeriesPoint)
	for _, p := range points {
		key := p.Date.Format(entity.DateLayout)
		pointMap[key] = p
	}
	result := make([]entity.TimeSeriesPoint, 0, len(points))
	cur := bucketStart(from, granularity)
	end := bucketStart(to, granularity)
	for !cur.After(end) {
		key := cur.Format(entity.DateLayout)
		if p, ok := pointMap[key]; ok {
			result = append(result, p)
		} else {
			result = append(result, entity.TimeSeriesPoint{Date: cur, Value: decimal.Zero, Count: 0})
		}
		cur = bucketNext(cur, granularity)
	}
	return result
}

func bucketStart(t time.Time, g entity.MetricsGranularity) time.Time {
	d := entity.Day(t)
	if g == entity.MetricsGranularityWeek {
		// Monday 00:00; Go weekdays start at Sunday=0
		daysBack := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -daysBack)
	}
	return d
}

func bucketNext(t time.Time, g entity.MetricsGranularity) time.Time {
	if g == entity.MetricsGranularityWeek {
		return t.AddDate(0, 0, 7)
	}
	return t.AddDate(0, 0, 1)
}

// bucketize sums values per bucket and fills empty buckets across the
// observed dates. Non-zero bounds narrow that span but never widen it, so the
// series length is bounded by the data.
func bucketize(dates []time.Time, values []decimal.Decimal, from, to time.Time, g entity.MetricsGranularity) []entity.TimeSeriesPoint {
	if len(dates) == 0 {
		return []entity.TimeSeriesPoint{}
	}
	buckets := make(map[time.Time]*entity.TimeSeriesPoint)
	lo, hi := dates[0], dates[0]
	for i, d := range dates {
		if d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
		start := bucketStart(d, g)
		p, ok := buckets[start]
		if !ok {
			p = &entity.TimeSeriesPoint{Date: start, Value: decimal.Zero}
			buckets[start] = p
		}
		p.Value = p.Value.Add(values[i])
		p.Count++
	}
	if !from.IsZero() && from.After(lo) {
		lo = from
	}
	if !to.IsZero() && to.Before(hi) {
		hi = to
	}
	points := make([]entity.TimeSeriesPoint, 0, len(buckets))
	for _, p := range buckets {
		points = append(points, *p)
	}
	return fillTimeSeriesGaps(points, lo, hi, g)
}

// RevenueTrend returns delivered net revenue per day or per week (weeks start
// on Monday) between the first and last delivered order inside from and to,
// with empty buckets as zero points.
func RevenueTrend(orders []entity.Order, g entity.MetricsGranularity, from, to time.Time) []entity.TimeSeriesPoint {
	var (
		dates  []time.Time
		values []decimal.Decimal
	)
	for _, o := range orders {
		if !o.IsDelivered() {
			continue
		}
		dates = append(dates, o.OrderDate)
		values = append(values, o.NetAmount)
	}
	return bucketize(dates, values, from, to, g)
}

// BreachTrend counts breached deliveries per actual delivery day.
func BreachTrend(fulfillment []entity.Fulfillment) []entity.TimeSeriesPoint {
	var (
		dates  []time.Time
		values []decimal.Decimal
	)
	one := decimal.NewFromInt(1)
	for i := range fulfillment {
		f := &fulfillment[i]
		if !f.Breach() {
			continue
		}
		dates = append(dates, *f.ActualDeliveryDate)
		values = append(values, one)
	}
	return bucketize(dates, values, time.Time{}, time.Time{}, entity.MetricsGranularityDay)
}
