package kpi

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

// ProblemAreaLimit is the number of zones listed by default.
const ProblemAreaLimit = 10

type zoneStats struct {
	zone      string
	rows      int
	breaches  int
	delaySum  int
	delayRows int
	reasons   *counter
}

// ProblemAreas ranks delivery zones by breach count, top n. Average delay
// counts negative delays as zero and skips rows missing either date. The top
// reason is the most frequent recorded delay reason of the zone.
func ProblemAreas(fulfillment []entity.Fulfillment, n int) []entity.ProblemArea {
	idx := make(map[string]int)
	var stats []*zoneStats
	for i := range fulfillment {
		f := &fulfillment[i]
		j, ok := idx[f.DeliveryZone]
		if !ok {
			j = len(stats)
			idx[f.DeliveryZone] = j
			stats = append(stats, &zoneStats{zone: f.DeliveryZone, reasons: newCounter()})
		}
		s := stats[j]
		s.rows++
		if f.Breach() {
			s.breaches++
		}
		if d, ok := f.DelayDays(); ok {
			s.delaySum += d
			s.delayRows++
		}
		if f.HasRecordedReason() {
			s.reasons.add(f.DelayReason)
		}
	}

	out := make([]entity.ProblemArea, 0, len(stats))
	for _, s := range stats {
		reason, ok := s.reasons.mode()
		if !ok {
			reason = entity.NoDelay
		}
		out = append(out, entity.ProblemArea{
			Zone:           s.zone,
			Breaches:       s.breaches,
			AvgDelayDays:   mean(decimal.NewFromInt(int64(s.delaySum)), s.delayRows).Round(1),
			TopDelayReason: reason,
			Orders:         s.rows,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Breaches > out[j].Breaches })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ZoneDrillDown applies the operations formulas to a single zone. The zone's
// orders are those with a fulfillment row in it.
func ZoneDrillDown(zone string, orders []entity.Order, fulfillment []entity.Fulfillment) entity.ZoneDrillDown {
	var rows []entity.Fulfillment
	inZone := make(map[string]struct{})
	for _, f := range fulfillment {
		if f.DeliveryZone == zone {
			rows = append(rows, f)
			inZone[f.OrderID] = struct{}{}
		}
	}

	var total, cancelled int
	for _, o := range orders {
		if _, ok := inZone[o.OrderID]; !ok {
			continue
		}
		total++
		if o.IsCancelled() {
			cancelled++
		}
	}

	var observed, onTime int
	reasons := newCounter()
	for i := range rows {
		f := &rows[i]
		if f.Observed() {
			observed++
			if f.OnTime() {
				onTime++
			}
		}
		if f.HasRecordedReason() {
			reasons.add(f.DelayReason)
		}
	}

	return entity.ZoneDrillDown{
		Zone:             zone,
		Orders:           total,
		OnTimeRate:       pctInt(onTime, observed),
		CancellationRate: pctInt(cancelled, total),
		BreachCount:      observed - onTime,
		DelayReasons:     reasons.ranked(),
		Partners:         PartnerPerformance(rows),
	}
}

// Zones lists the distinct delivery zones in first-seen order.
func Zones(fulfillment []entity.Fulfillment) []string {
	c := newCounter()
	for _, f := range fulfillment {
		c.add(f.DeliveryZone)
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
