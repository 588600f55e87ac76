package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerTier is derived from lifetime net spend.
type CustomerTier string

const (
	TierBronze   CustomerTier = "Bronze"
	TierSilver   CustomerTier = "Silver"
	TierGold     CustomerTier = "Gold"
	TierPlatinum CustomerTier = "Platinum"
)

var (
	silverFloor   = decimal.NewFromInt(500)
	goldFloor     = decimal.NewFromInt(2000)
	platinumFloor = decimal.NewFromInt(5000)
)

// TierForSpend maps a lifetime net spend to a tier. Each floor belongs to the upper tier.
func TierForSpend(total decimal.Decimal) CustomerTier {
	switch {
	case total.LessThan(silverFloor):
		return TierBronze
	case total.LessThan(goldFloor):
		return TierSilver
	case total.LessThan(platinumFloor):
		return TierGold
	default:
		return TierPlatinum
	}
}

// Customer represents a canonical customer row.
type Customer struct {
	CustomerID    string          `json:"customer_id"`
	City          string          `json:"city"`
	Segment       string          `json:"customer_segment"`
	SignupDate    *time.Time      `json:"signup_date,omitempty"`
	SignupChannel string          `json:"signup_channel"`
	Tier          CustomerTier    `json:"customer_tier"`
	TotalSpending decimal.Decimal `json:"total_spending"`
}
