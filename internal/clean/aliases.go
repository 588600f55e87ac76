package clean

import (
	"strings"

	"golang.org/x/text/cases"
)

var cityAliases = map[string][]string{
	"Dubai":          {"dubai", "dxb"},
	"Abu Dhabi":      {"abu dhabi", "abudhabi", "ad", "auh"},
	"Sharjah":        {"sharjah", "shj"},
	"Ajman":          {"ajman"},
	"Ras Al Khaimah": {"ras al khaimah", "ras al-khaimah", "rak"},
}

var categoryAliases = map[string][]string{
	"Electronics":    {"electronics", "electronic"},
	"Fashion":        {"fashion"},
	"Home & Kitchen": {"home & kitchen", "home and kitchen", "home&kitchen"},
	"Beauty":         {"beauty"},
	"Groceries":      {"groceries", "grocery"},
}

var statusAliases = map[string][]string{
	"Delivered":  {"delivered"},
	"Cancelled":  {"cancelled", "canceled"},
	"Returned":   {"returned"},
	"In Transit": {"in transit", "in_transit", "intransit", "in-transit"},
}

var channelAliases = map[string][]string{
	"App":         {"app", "mobile app", "mobile"},
	"Web":         {"web", "website", "online"},
	"Call Center": {"call center", "call centre", "callcenter", "phone"},
}

var segmentAliases = map[string][]string{
	"Regular": {"regular"},
	"Premium": {"premium"},
	"VIP":     {"vip"},
}

var refundStatusAliases = map[string][]string{
	"Processed": {"processed"},
	"Pending":   {"pending"},
	"Rejected":  {"rejected"},
}

// normalizer maps categorical spellings onto their canonical form. Lookups are
// case-folded. A Caser is stateful, so each cleaning run owns its normalizer.
type normalizer struct {
	fold   cases.Caser
	tables map[string]map[string]string
}

func newNormalizer() *normalizer {
	n := &normalizer{
		fold:   cases.Fold(),
		tables: map[string]map[string]string{},
	}
	n.add("city", cityAliases)
	n.add("product_category", categoryAliases)
	n.add("order_status", statusAliases)
	n.add("order_channel", channelAliases)
	n.add("customer_segment", segmentAliases)
	n.add("refund_status", refundStatusAliases)
	return n
}

func (n *normalizer) add(column string, aliases map[string][]string) {
	t := make(map[string]string)
	for canonical, spellings := range aliases {
		t[n.key(canonical)] = canonical
		for _, s := range spellings {
			t[n.key(s)] = canonical
		}
	}
	n.tables[column] = t
}

func (n *normalizer) key(v string) string {
	return strings.Join(strings.Fields(n.fold.String(v)), " ")
}

// normalize returns the canonical spelling of v for the column, or v itself
// when it is not a known alias.
func (n *normalizer) normalize(column, v string) string {
	if v == "" {
		return v
	}
	if canonical, ok := n.tables[column][n.key(v)]; ok {
		return canonical
	}
	return v
}
