package kpi

import (
	"sort"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

// counter counts values and remembers the order in which they were first seen.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(v string) {
	if _, ok := c.counts[v]; !ok {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

// ranked returns all values by count descending. Ties keep first-seen order.
func (c *counter) ranked() []entity.NamedCount {
	out := make([]entity.NamedCount, 0, len(c.order))
	for _, v := range c.order {
		out = append(out, entity.NamedCount{Name: v, Count: c.counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// top returns at most n ranked values. n <= 0 means all.
func (c *counter) top(n int) []entity.NamedCount {
	out := c.ranked()
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// mode returns the most frequent value, ties broken by first-seen order.
func (c *counter) mode() (string, bool) {
	best, bestN := "", 0
	for _, v := range c.order {
		if c.counts[v] > bestN {
			best, bestN = v, c.counts[v]
		}
	}
	return best, bestN > 0
}
