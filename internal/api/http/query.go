package httpapi

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
)

// parseFilter reads a filter spec from query parameters. Set-valued
// parameters may repeat or carry comma separated values.
func parseFilter(q url.Values) (entity.FilterSpec, error) {
	var (
		spec entity.FilterSpec
		err  error
	)
	if spec.Start, err = parseDate(q, "from"); err != nil {
		return spec, err
	}
	if spec.End, err = parseDate(q, "to"); err != nil {
		return spec, err
	}
	spec.Cities = list(q, "city")
	spec.Channels = list(q, "channel")
	spec.Categories = list(q, "category")
	spec.Segments = list(q, "segment")
	spec.Statuses = list(q, "status")
	spec.Tiers = list(q, "tier")
	return spec, spec.Validate()
}

func parseDate(q url.Values, key string) (time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(entity.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", gerr.ErrInvalidFilter, key, v)
	}
	return t, nil
}

func list(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseGranularity(q url.Values) (entity.MetricsGranularity, error) {
	switch v := strings.ToLower(q.Get("granularity")); v {
	case "", "day":
		return entity.MetricsGranularityDay, nil
	case "week":
		return entity.MetricsGranularityWeek, nil
	default:
		return 0, fmt.Errorf("%w: granularity must be day or week, got %q", gerr.ErrInvalidFilter, v)
	}
}

// parseDecimal reads a numeric parameter. Missing parameters yield def, or an
// error when required.
func parseDecimal(q url.Values, key string, required bool, def decimal.Decimal) (decimal.Decimal, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		if required {
			return decimal.Zero, fmt.Errorf("%w: %s is required", gerr.ErrInvalidDelta, key)
		}
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s is not a number: %q", gerr.ErrInvalidDelta, key, v)
	}
	return d, nil
}
