package clean

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy holds the data-quality knobs of a cleaning run.
type Policy struct {
	// MinOrderDate drops orders placed before it.
	MinOrderDate time.Time
	// Now drops orders placed after it. Zero means the wall clock at run time.
	Now time.Time
	// HighValueThreshold flags orders whose net amount is strictly above it.
	HighValueThreshold decimal.Decimal
	// CapPercentile is the net amount percentile used for the capped column, in (0, 1].
	CapPercentile float64
}

var (
	defaultMinOrderDate       = time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)
	defaultHighValueThreshold = decimal.NewFromInt(10000)
)

const defaultCapPercentile = 0.99

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MinOrderDate:       defaultMinOrderDate,
		HighValueThreshold: defaultHighValueThreshold,
		CapPercentile:      defaultCapPercentile,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MinOrderDate.IsZero() {
		p.MinOrderDate = defaultMinOrderDate
	}
	if p.Now.IsZero() {
		p.Now = time.Now().UTC()
	}
	if p.HighValueThreshold.IsZero() {
		p.HighValueThreshold = defaultHighValueThreshold
	}
	if p.CapPercentile <= 0 || p.CapPercentile > 1 {
		p.CapPercentile = defaultCapPercentile
	}
	return p
}
