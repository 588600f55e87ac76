package entity

import (
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"

	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
)

// DateLayout is the day-level text form used by filters and query parameters.
const DateLayout = "2006-01-02"

// FilterSpec selects a view of the canonical tables. Zero Start or End leaves
// that side of the date range open. An empty inclusion set does not restrict
// its dimension.
type FilterSpec struct {
	Start      time.Time `json:"start,omitzero"`
	End        time.Time `json:"end,omitzero"`
	Cities     []string  `json:"cities,omitempty"`
	Channels   []string  `json:"channels,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Segments   []string  `json:"segments,omitempty"`
	Statuses   []string  `json:"statuses,omitempty"`
	Tiers      []string  `json:"tiers,omitempty"`
}

// HasDateRange reports whether both date bounds are set.
func (f *FilterSpec) HasDateRange() bool {
	return !f.Start.IsZero() && !f.End.IsZero()
}

// Validate checks the date range ordering and the tier names.
func (f *FilterSpec) Validate() error {
	if f.HasDateRange() && Day(f.End).Before(Day(f.Start)) {
		return fmt.Errorf("%w: end %s is before start %s", gerr.ErrInvalidFilter,
			f.End.Format(DateLayout), f.Start.Format(DateLayout))
	}
	for _, t := range f.Tiers {
		if !govalidator.IsIn(t, string(TierBronze), string(TierSilver), string(TierGold), string(TierPlatinum)) {
			return fmt.Errorf("%w: unknown tier %q", gerr.ErrInvalidFilter, t)
		}
	}
	return nil
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FilterOptions lists the values available for each filter dimension.
type FilterOptions struct {
	Cities     []string  `json:"cities"`
	Channels   []string  `json:"channels"`
	Categories []string  `json:"categories"`
	Segments   []string  `json:"segments"`
	Statuses   []string  `json:"statuses"`
	Tiers      []string  `json:"tiers"`
	DateRange  TimeRange `json:"date_range"`
}
