// Package filter derives referentially closed views of the canonical tables.
package filter

import (
	"slices"
	"time"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

type set map[string]struct{}

func newSet(values []string) set {
	if len(values) == 0 {
		return nil
	}
	s := make(set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// allows reports whether v passes the set. A nil set allows everything.
func (s set) allows(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

// Apply returns the rows of t selected by spec. Items, fulfillment and returns
// are kept exactly for surviving orders and customers exactly for those
// referenced by surviving orders. t is never modified.
func Apply(t *entity.Tables, spec entity.FilterSpec) *entity.Tables {
	var (
		cities     = newSet(spec.Cities)
		channels   = newSet(spec.Channels)
		categories = newSet(spec.Categories)
		segments   = newSet(spec.Segments)
		statuses   = newSet(spec.Statuses)
		tiers      = newSet(spec.Tiers)
	)
	byCustomer := len(spec.Cities) > 0 || len(spec.Segments) > 0 || len(spec.Tiers) > 0
	customers := t.CustomerIndex()

	orders := make([]entity.Order, 0, len(t.Orders))
	for _, o := range t.Orders {
		if !inRange(o.OrderDate, spec.Start, spec.End) {
			continue
		}
		if !channels.allows(o.Channel) || !statuses.allows(o.Status) {
			continue
		}
		if byCustomer {
			c, ok := customers[o.CustomerID]
			if !ok || !cities.allows(c.City) || !segments.allows(c.Segment) || !tiers.allows(string(c.Tier)) {
				continue
			}
		}
		orders = append(orders, o)
	}

	items := itemsOf(t.OrderItems, orderIDs(orders), categories)
	if categories != nil {
		// second pass: orders keep at least one matching item, items keep their order
		withItems := make(set, len(items))
		for _, it := range items {
			withItems[it.OrderID] = struct{}{}
		}
		orders = slices.DeleteFunc(orders, func(o entity.Order) bool {
			return !withItems.allows(o.OrderID)
		})
		items = itemsOf(items, orderIDs(orders), nil)
	}

	ids := orderIDs(orders)
	out := &entity.Tables{
		Orders:      orders,
		OrderItems:  items,
		Customers:   make([]entity.Customer, 0),
		Fulfillment: make([]entity.Fulfillment, 0),
		Returns:     make([]entity.Return, 0),
	}

	referenced := make(set, len(orders))
	for _, o := range orders {
		referenced[o.CustomerID] = struct{}{}
	}
	for _, c := range t.Customers {
		if _, ok := referenced[c.CustomerID]; ok {
			out.Customers = append(out.Customers, c)
		}
	}
	for _, f := range t.Fulfillment {
		if _, ok := ids[f.OrderID]; ok {
			out.Fulfillment = append(out.Fulfillment, f)
		}
	}
	for _, r := range t.Returns {
		if _, ok := ids[r.OrderID]; ok {
			out.Returns = append(out.Returns, r)
		}
	}
	return out
}

func orderIDs(orders []entity.Order) set {
	ids := make(set, len(orders))
	for _, o := range orders {
		ids[o.OrderID] = struct{}{}
	}
	return ids
}

func itemsOf(items []entity.OrderItem, orders set, categories set) []entity.OrderItem {
	out := make([]entity.OrderItem, 0, len(items))
	for _, it := range items {
		if _, ok := orders[it.OrderID]; !ok {
			continue
		}
		if !categories.allows(it.ProductCategory) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// inRange compares calendar days. Zero bounds are open.
func inRange(t, start, end time.Time) bool {
	d := entity.Day(t)
	if !start.IsZero() && d.Before(entity.Day(start)) {
		return false
	}
	if !end.IsZero() && d.After(entity.Day(end)) {
		return false
	}
	return true
}

// PreviousPeriod returns the filter shifted to the equally long period that
// ends the day before spec.Start. ok is false unless both bounds are set.
func PreviousPeriod(spec entity.FilterSpec) (prev entity.FilterSpec, ok bool) {
	if !spec.HasDateRange() {
		return entity.FilterSpec{}, false
	}
	start, end := entity.Day(spec.Start), entity.Day(spec.End)
	days := int(end.Sub(start).Hours()/24) + 1
	prev = spec
	prev.End = start.AddDate(0, 0, -1)
	prev.Start = start.AddDate(0, 0, -days)
	return prev, true
}

// ApplyWithBaseline returns the current view and the previous-period view.
// previous is empty when spec has no complete date range.
func ApplyWithBaseline(t *entity.Tables, spec entity.FilterSpec) (current, previous *entity.Tables) {
	current = Apply(t, spec)
	prevSpec, ok := PreviousPeriod(spec)
	if !ok {
		return current, &entity.Tables{}
	}
	return current, Apply(t, prevSpec)
}
