package clean

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006/01/02",
	"01/02/2006",
}

// parseDate returns nil for null input. ok is false when a non-null value
// could not be parsed.
func parseDate(v string) (t *time.Time, ok bool) {
	if v == "" {
		return nil, true
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, v); err == nil {
			parsed = parsed.UTC()
			return &parsed, true
		}
	}
	return nil, false
}

// parseMoney reads decimal text with optional thousands separators and a
// leading currency code. Null and unparseable values read as zero. The
// result keeps its sign and has two decimal places.
func parseMoney(v string) (d decimal.Decimal, ok bool) {
	if v == "" {
		return decimal.Zero.Round(2), true
	}
	s := strings.TrimLeftFunc(v, func(r rune) bool {
		return unicode.IsLetter(r) || r == '$' || unicode.IsSpace(r)
	})
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero.Round(2), false
	}
	return d.Round(2), true
}
