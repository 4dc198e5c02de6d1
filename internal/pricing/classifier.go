// Package pricing derives discount percentages and status tiers from
// days-until-expiry. Every function is pure: callers supply the reference
// date, so classification never reads the wall clock and the same inputs
// always produce the same tier.
package pricing

import (
	"time"

	"expiry-tracker/internal/models"
)

// DaysUntilExpiry returns the signed number of whole days between today
// and the expiry date. Both instants are truncated to calendar dates
// first; negative means the item is already expired.
func DaysUntilExpiry(expiry, today time.Time) int {
	e := models.NewDate(expiry)
	t := models.NewDate(today)
	return int(e.Sub(t.Time).Hours() / 24)
}

// Classify maps an expiry date to its status tier and discount percentage
// under the given configuration. The cascade is evaluated top-down with
// inclusive boundaries, first match wins:
//
//	days <= 0            -> EXPIRED,  maxDiscount
//	days <= criticalDays -> CRITICAL, discountCritical
//	days <= warningDays  -> WARNING,  discountWarning
//	days <= moderateDays -> MODERATE, discountModerate
//	otherwise            -> FRESH,    0
//
// The config is read on every call; boundaries are never cached, so a
// settings change reclassifies the whole collection on the next read.
func Classify(expiry, today time.Time, cfg models.ThresholdConfig) (models.ItemStatus, int) {
	return classifyDays(DaysUntilExpiry(expiry, today), cfg)
}

func classifyDays(days int, cfg models.ThresholdConfig) (models.ItemStatus, int) {
	switch {
	case days <= 0:
		return models.StatusExpired, cfg.MaxDiscount
	case days <= cfg.CriticalDays:
		return models.StatusCritical, cfg.DiscountCritical
	case days <= cfg.WarningDays:
		return models.StatusWarning, cfg.DiscountWarning
	case days <= cfg.ModerateDays:
		return models.StatusModerate, cfg.DiscountModerate
	default:
		return models.StatusFresh, 0
	}
}

// DiscountedPrice applies a percentage discount to a unit price. No
// rounding happens here; display formatting rounds separately.
func DiscountedPrice(price float64, discountPercent int) float64 {
	return price * (1 - float64(discountPercent)/100)
}

// Enrich derives every computed field for a single item as of today.
func Enrich(item models.InventoryItem, cfg models.ThresholdConfig, today time.Time) models.EnrichedItem {
	days := DaysUntilExpiry(item.ExpiryDate.Time, today)
	status, discount := classifyDays(days, cfg)

	unitDiscounted := DiscountedPrice(item.Price, discount)
	original := item.Price * float64(item.Quantity)
	discounted := unitDiscounted * float64(item.Quantity)

	return models.EnrichedItem{
		InventoryItem:       item,
		DaysUntilExpiry:     days,
		Status:              status,
		DiscountPercent:     discount,
		DiscountedPrice:     unitDiscounted,
		LineTotalOriginal:   original,
		LineTotalDiscounted: discounted,
		PotentialLoss:       original - discounted,
	}
}

// EnrichAll enriches a collection, preserving insertion order.
func EnrichAll(items []models.InventoryItem, cfg models.ThresholdConfig, today time.Time) []models.EnrichedItem {
	enriched := make([]models.EnrichedItem, 0, len(items))
	for _, item := range items {
		enriched = append(enriched, Enrich(item, cfg, today))
	}
	return enriched
}
