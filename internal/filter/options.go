package filter

import (
	"slices"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

// Options collects the distinct values of every filter dimension, sorted, and
// the span of order dates.
func Options(t *entity.Tables) entity.FilterOptions {
	var cities, segments, channels, statuses, categories []string
	for _, c := range t.Customers {
		cities = append(cities, c.City)
		segments = append(segments, c.Segment)
	}
	var span entity.TimeRange
	for i, o := range t.Orders {
		channels = append(channels, o.Channel)
		statuses = append(statuses, o.Status)
		if i == 0 || o.OrderDate.Before(span.From) {
			span.From = o.OrderDate
		}
		if i == 0 || o.OrderDate.After(span.To) {
			span.To = o.OrderDate
		}
	}
	for _, it := range t.OrderItems {
		categories = append(categories, it.ProductCategory)
	}
	return entity.FilterOptions{
		Cities:     distinct(cities),
		Channels:   distinct(channels),
		Categories: distinct(categories),
		Segments:   distinct(segments),
		Statuses:   distinct(statuses),
		Tiers: []string{
			string(entity.TierBronze), string(entity.TierSilver),
			string(entity.TierGold), string(entity.TierPlatinum),
		},
		DateRange: span,
	}
}

func distinct(values []string) []string {
	out := slices.DeleteFunc(slices.Clone(values), func(v string) bool { return v == "" })
	if out == nil {
		return []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
