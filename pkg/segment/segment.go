// Package segment derives value and recency tiers from a customer's
// aggregate spend and order history. Everything here is pure: identical
// inputs always yield identical tiers, and callers must overwrite any
// previously stored tiers with the result.
package segment

import (
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Recency thresholds in days since the last order.
const (
	ActiveMaxDays  = 90
	WarmMaxDays    = 180
	CoolingMaxDays = 365
	DormantMaxDays = 730
)

// Result is the derived classification for one customer.
type Result struct {
	ValueTier         models.ValueTier
	RecencyTier       models.RecencyTier
	DaysSinceOrder    *int
	IsRepeat          bool
	IsLapsedHighValue bool
}

// Classify computes the segment of a customer from its aggregates at the
// given evaluation time. A nil lastOrder means the customer never ordered
// (or the date was lost upstream) and is treated as unbounded recency.
func Classify(totalSpent float64, orderCount int, lastOrder *time.Time, now time.Time) Result {
	r := Result{
		ValueTier: valueTier(totalSpent, orderCount),
		IsRepeat:  orderCount >= 2,
	}

	if lastOrder != nil {
		days := int(now.Sub(*lastOrder).Hours() / 24)
		if days < 0 {
			days = 0
		}
		r.DaysSinceOrder = &days
	}

	r.RecencyTier = recencyTier(r.DaysSinceOrder)
	r.IsLapsedHighValue = isHighValue(r.ValueTier) && lapsed(r.DaysSinceOrder)

	return r
}

// valueTier evaluates the spend thresholds top-down; the first match wins.
func valueTier(totalSpent float64, orderCount int) models.ValueTier {
	switch {
	case totalSpent >= 1000 && orderCount >= 3:
		return models.ValueTierVIPPlatinum
	case totalSpent >= 500 || orderCount >= 5:
		return models.ValueTierVIPGold
	case totalSpent >= 300:
		return models.ValueTierHighValue
	case totalSpent >= 150:
		return models.ValueTierMedium
	default:
		return models.ValueTierLow
	}
}

func recencyTier(daysSince *int) models.RecencyTier {
	if daysSince == nil {
		return models.RecencyTierLost
	}
	switch d := *daysSince; {
	case d <= ActiveMaxDays:
		return models.RecencyTierActive
	case d <= WarmMaxDays:
		return models.RecencyTierWarm
	case d <= CoolingMaxDays:
		return models.RecencyTierCooling
	case d <= DormantMaxDays:
		return models.RecencyTierDormant
	default:
		return models.RecencyTierLost
	}
}

func isHighValue(tier models.ValueTier) bool {
	switch tier {
	case models.ValueTierVIPPlatinum, models.ValueTierVIPGold, models.ValueTierHighValue:
		return true
	default:
		return false
	}
}

// lapsed reports whether the customer has gone cold: more days since the
// last order than the "warm" window allows. Unknown last order counts as
// lapsed.
func lapsed(daysSince *int) bool {
	if daysSince == nil {
		return true
	}
	return *daysSince > WarmMaxDays
}

// Apply writes the classification onto a customer record, overwriting
// whatever tiers were stored before.
func Apply(c *models.Customer, r Result) {
	c.ValueTier = r.ValueTier
	c.RecencyTier = r.RecencyTier
	c.DaysSinceOrder = r.DaysSinceOrder
	c.IsRepeat = r.IsRepeat
	c.IsLapsedHighValue = r.IsLapsedHighValue
}
