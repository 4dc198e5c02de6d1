// Package reports folds the item collection into every derived view the
// surrounding UI needs: dashboard stats, priority alerts, filtered and
// sorted report rows, and export-ready tabular projections. Like the
// classifier it is pure over snapshots passed in by the caller.
package reports

import (
	"sort"
	"strings"
	"time"

	"expiry-tracker/internal/models"
	"expiry-tracker/internal/pricing"
)

// MaxAlerts caps the priority alert list at the five most urgent items.
const MaxAlerts = 5

// ComputeStats aggregates the whole collection as of today. An empty
// collection yields all-zero stats.
//
// PotentialLoss follows the asymmetric business rule: EXPIRED items
// contribute their full original line value, CRITICAL items contribute
// line value times the discount fraction, and WARNING/MODERATE/FRESH
// items contribute nothing.
func ComputeStats(items []models.InventoryItem, cfg models.ThresholdConfig, today time.Time) models.Stats {
	var stats models.Stats

	for _, enriched := range pricing.EnrichAll(items, cfg, today) {
		stats.TotalItems++
		stats.TotalQuantity += enriched.Quantity
		stats.TotalValue += enriched.LineTotalOriginal

		switch enriched.Status {
		case models.StatusExpired:
			stats.Expired++
			stats.PotentialLoss += enriched.LineTotalOriginal
		case models.StatusCritical:
			stats.Critical++
			stats.PotentialLoss += enriched.LineTotalOriginal * float64(enriched.DiscountPercent) / 100
		case models.StatusWarning:
			stats.Warning++
		case models.StatusModerate:
			stats.Moderate++
		case models.StatusFresh:
			stats.Fresh++
		}
	}

	stats.NeedsDiscount = stats.Critical + stats.Warning
	return stats
}

// ComputeFinancials produces the report-page money overview. The average
// discount is taken over items that actually carry a discount; an empty
// or all-fresh collection averages to zero rather than dividing by zero.
func ComputeFinancials(items []models.InventoryItem, cfg models.ThresholdConfig, today time.Time) models.Financials {
	var fin models.Financials
	discounted := 0

	for _, enriched := range pricing.EnrichAll(items, cfg, today) {
		fin.TotalOriginalValue += enriched.LineTotalOriginal
		fin.TotalDiscountedValue += enriched.LineTotalDiscounted
		if enriched.DiscountPercent > 0 {
			fin.AverageDiscount += float64(enriched.DiscountPercent)
			discounted++
		}
	}

	fin.DiscountImpact = fin.TotalOriginalValue - fin.TotalDiscountedValue
	if discounted > 0 {
		fin.AverageDiscount /= float64(discounted)
	}
	return fin
}

// ComputeAlerts returns the most urgent EXPIRED/CRITICAL/WARNING items,
// ascending by days until expiry with insertion order breaking ties,
// truncated to MaxAlerts. No qualifying items yields an empty slice.
func ComputeAlerts(items []models.InventoryItem, cfg models.ThresholdConfig, today time.Time) []models.Alert {
	alerts := make([]models.Alert, 0)

	for _, enriched := range pricing.EnrichAll(items, cfg, today) {
		switch enriched.Status {
		case models.StatusExpired, models.StatusCritical, models.StatusWarning:
			alerts = append(alerts, models.Alert{
				ProductID:       enriched.ProductID,
				ProductName:     enriched.ProductName,
				BatchNumber:     enriched.BatchNumber,
				DaysUntilExpiry: enriched.DaysUntilExpiry,
				Status:          enriched.Status,
				DiscountPercent: enriched.DiscountPercent,
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysUntilExpiry < alerts[j].DaysUntilExpiry
	})

	if len(alerts) > MaxAlerts {
		alerts = alerts[:MaxAlerts]
	}
	return alerts
}

// Filter narrows a report view. Zero-valued dimensions mean "no filter";
// populated dimensions compose with logical AND.
type Filter struct {
	Search     string
	Categories []string
	Statuses   []models.ItemStatus
}

// FilterItems applies f to an enriched collection. The search term matches
// case-insensitively as a substring of productName, productId, or
// batchNumber (OR across the three fields). Dimensions are independent,
// so applying them in any order yields the same result set.
func FilterItems(items []models.EnrichedItem, f Filter) []models.EnrichedItem {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	categories := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		categories[c] = true
	}
	statuses := make(map[models.ItemStatus]bool, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses[s] = true
	}

	filtered := make([]models.EnrichedItem, 0, len(items))
	for _, item := range items {
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		if len(categories) > 0 && !categories[item.Category] {
			continue
		}
		if len(statuses) > 0 && !statuses[item.Status] {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

func matchesSearch(item models.EnrichedItem, search string) bool {
	return strings.Contains(strings.ToLower(item.ProductName), search) ||
		strings.Contains(strings.ToLower(item.ProductID), search) ||
		strings.Contains(strings.ToLower(item.BatchNumber), search)
}

// SortKey selects the report column to order by.
type SortKey string

const (
	SortByDaysUntilExpiry SortKey = "daysUntilExpiry"
	SortByDiscount        SortKey = "discount"
	SortByStatus          SortKey = "status"
	SortByProductName     SortKey = "productName"
	SortByPotentialLoss   SortKey = "potentialLoss"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ValidSortKey reports whether key is one of the report sort columns.
func ValidSortKey(key SortKey) bool {
	switch key {
	case SortByDaysUntilExpiry, SortByDiscount, SortByStatus, SortByProductName, SortByPotentialLoss:
		return true
	}
	return false
}

// SortReport orders items in place by the given key and direction. The
// comparator is an explicit three-way comparison returning zero on equal
// keys, paired with a stable sort, so equal rows keep their relative
// (insertion) order.
func SortReport(items []models.EnrichedItem, key SortKey, order SortOrder) {
	cmp := comparator(key)
	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(items[i], items[j])
		if order == OrderDesc {
			return c > 0
		}
		return c < 0
	})
}

func comparator(key SortKey) func(a, b models.EnrichedItem) int {
	switch key {
	case SortByDiscount:
		return func(a, b models.EnrichedItem) int {
			return compareInt(a.DiscountPercent, b.DiscountPercent)
		}
	case SortByStatus:
		return func(a, b models.EnrichedItem) int {
			return strings.Compare(string(a.Status), string(b.Status))
		}
	case SortByProductName:
		return func(a, b models.EnrichedItem) int {
			return strings.Compare(a.ProductName, b.ProductName)
		}
	case SortByPotentialLoss:
		return func(a, b models.EnrichedItem) int {
			return compareFloat(a.PotentialLoss, b.PotentialLoss)
		}
	default:
		return func(a, b models.EnrichedItem) int {
			return compareInt(a.DaysUntilExpiry, b.DaysUntilExpiry)
		}
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
