package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"expiry-tracker/internal/models"
	"expiry-tracker/internal/pricing"
)

var today = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func item(productID string, daysOut int, price float64, qty int) models.InventoryItem {
	return models.InventoryItem{
		ProductID:   productID,
		ProductName: "Product " + productID,
		BatchNumber: "B-" + productID,
		Category:    "Dairy",
		ExpiryDate:  models.NewDate(today.AddDate(0, 0, daysOut)),
		Quantity:    qty,
		Price:       price,
	}
}

func TestComputeStatsEmptyCollection(t *testing.T) {
	stats := ComputeStats(nil, models.DefaultThresholds(), today)
	assert.Equal(t, models.Stats{}, stats)
}

func TestComputeStatsCountsAndTotals(t *testing.T) {
	items := []models.InventoryItem{
		item("EXP", -5, 20, 3),  // expired
		item("CRI", 2, 100, 10), // critical
		item("WRN", 6, 10, 2),   // warning
		item("MOD", 10, 5, 4),   // moderate
		item("FRS", 30, 1, 8),   // fresh
	}

	stats := ComputeStats(items, models.DefaultThresholds(), today)

	assert.Equal(t, 5, stats.TotalItems)
	assert.Equal(t, 27, stats.TotalQuantity)
	assert.InDelta(t, 60+1000+20+20+8, stats.TotalValue, 1e-9)
	assert.Equal(t, 1, stats.Expired)
	assert.Equal(t, 1, stats.Critical)
	assert.Equal(t, 1, stats.Warning)
	assert.Equal(t, 1, stats.Moderate)
	assert.Equal(t, 1, stats.Fresh)
	assert.Equal(t, 2, stats.NeedsDiscount)
}

func TestPotentialLossAsymmetry(t *testing.T) {
	cfg := models.DefaultThresholds()

	// An expired item contributes its full line value, not the discounted
	// remainder.
	expired := ComputeStats([]models.InventoryItem{item("EXP", -5, 20, 3)}, cfg, today)
	assert.InDelta(t, 60.0, expired.PotentialLoss, 1e-9)

	// A critical item contributes line value times the discount fraction.
	critical := ComputeStats([]models.InventoryItem{item("CRI", 2, 100, 10)}, cfg, today)
	assert.InDelta(t, 500.0, critical.PotentialLoss, 1e-9)

	// Warning, moderate, and fresh items contribute nothing, even though
	// warning and moderate items do carry a discount.
	rest := ComputeStats([]models.InventoryItem{
		item("WRN", 6, 10, 2),
		item("MOD", 10, 5, 4),
		item("FRS", 30, 1, 8),
	}, cfg, today)
	assert.InDelta(t, 0.0, rest.PotentialLoss, 1e-9)
}

func TestComputeFinancials(t *testing.T) {
	cfg := models.DefaultThresholds()
	items := []models.InventoryItem{
		item("CRI", 2, 100, 1), // 50% off: 100 -> 50
		item("WRN", 6, 100, 1), // 30% off: 100 -> 70
		item("FRS", 30, 100, 1),
	}

	fin := ComputeFinancials(items, cfg, today)

	assert.InDelta(t, 300.0, fin.TotalOriginalValue, 1e-9)
	assert.InDelta(t, 220.0, fin.TotalDiscountedValue, 1e-9)
	assert.InDelta(t, 80.0, fin.DiscountImpact, 1e-9)
	// Average over discounted items only: (50+30)/2, fresh excluded.
	assert.InDelta(t, 40.0, fin.AverageDiscount, 1e-9)
}

func TestComputeFinancialsNoDiscountedItems(t *testing.T) {
	fin := ComputeFinancials([]models.InventoryItem{item("FRS", 30, 10, 1)}, models.DefaultThresholds(), today)
	assert.InDelta(t, 0.0, fin.AverageDiscount, 1e-9)

	empty := ComputeFinancials(nil, models.DefaultThresholds(), today)
	assert.Equal(t, models.Financials{}, empty)
}

func TestComputeAlertsOrderingAndCap(t *testing.T) {
	items := []models.InventoryItem{
		item("A", 6, 1, 1),  // warning
		item("B", -2, 1, 1), // expired
		item("C", 2, 1, 1),  // critical
		item("D", 30, 1, 1), // fresh: excluded
		item("E", 1, 1, 1),  // critical
		item("F", 10, 1, 1), // moderate: excluded
		item("G", 5, 1, 1),  // warning
		item("H", 0, 1, 1),  // expired
	}

	alerts := ComputeAlerts(items, models.DefaultThresholds(), today)

	assert.Len(t, alerts, MaxAlerts)
	ids := make([]string, len(alerts))
	for i, a := range alerts {
		ids[i] = a.ProductID
	}
	assert.Equal(t, []string{"B", "H", "E", "C", "G"}, ids)
}

func TestComputeAlertsStableOnTies(t *testing.T) {
	// Three items expiring the same day keep insertion order.
	items := []models.InventoryItem{
		item("FIRST", 2, 1, 1),
		item("SECOND", 2, 1, 1),
		item("THIRD", 2, 1, 1),
	}

	alerts := ComputeAlerts(items, models.DefaultThresholds(), today)

	assert.Len(t, alerts, 3)
	assert.Equal(t, "FIRST", alerts[0].ProductID)
	assert.Equal(t, "SECOND", alerts[1].ProductID)
	assert.Equal(t, "THIRD", alerts[2].ProductID)
}

func TestComputeAlertsEmptyWhenNoneQualify(t *testing.T) {
	alerts := ComputeAlerts([]models.InventoryItem{item("FRS", 60, 1, 1)}, models.DefaultThresholds(), today)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func enrichedFixture() []models.EnrichedItem {
	cfg := models.DefaultThresholds()
	items := []models.InventoryItem{
		{ProductID: "PRD-001", ProductName: "Whole Milk", BatchNumber: "BATCH-A", Category: "Dairy",
			ExpiryDate: models.NewDate(today.AddDate(0, 0, 2)), Quantity: 2, Price: 3},
		{ProductID: "PRD-002", ProductName: "Sourdough", BatchNumber: "BATCH-B", Category: "Bakery",
			ExpiryDate: models.NewDate(today.AddDate(0, 0, 6)), Quantity: 1, Price: 5},
		{ProductID: "PRD-003", ProductName: "Oat Milk", BatchNumber: "BATCH-C", Category: "Dairy",
			ExpiryDate: models.NewDate(today.AddDate(0, 0, 30)), Quantity: 3, Price: 4},
	}
	return pricing.EnrichAll(items, cfg, today)
}

func TestFilterItemsSearch(t *testing.T) {
	enriched := enrichedFixture()

	byName := FilterItems(enriched, Filter{Search: "milk"})
	assert.Len(t, byName, 2)

	byID := FilterItems(enriched, Filter{Search: "prd-002"})
	assert.Len(t, byID, 1)
	assert.Equal(t, "Sourdough", byID[0].ProductName)

	byBatch := FilterItems(enriched, Filter{Search: "batch-c"})
	assert.Len(t, byBatch, 1)

	none := FilterItems(enriched, Filter{Search: "zzz"})
	assert.Empty(t, none)
}

func TestFilterItemsDimensionsCompose(t *testing.T) {
	enriched := enrichedFixture()

	f := Filter{Search: "milk", Categories: []string{"Dairy"}, Statuses: []models.ItemStatus{models.StatusCritical}}
	result := FilterItems(enriched, f)
	assert.Len(t, result, 1)
	assert.Equal(t, "PRD-001", result[0].ProductID)

	// Independent dimensions commute: search-then-category equals
	// category-then-search.
	a := FilterItems(FilterItems(enriched, Filter{Search: "milk"}), Filter{Categories: []string{"Dairy"}})
	b := FilterItems(FilterItems(enriched, Filter{Categories: []string{"Dairy"}}), Filter{Search: "milk"})
	assert.Equal(t, a, b)
}

func TestFilterItemsEmptyFilterPassesAll(t *testing.T) {
	enriched := enrichedFixture()
	assert.Equal(t, enriched, FilterItems(enriched, Filter{}))
}

func TestSortReportNumericAndDirection(t *testing.T) {
	enriched := enrichedFixture()

	SortReport(enriched, SortByDaysUntilExpiry, OrderAsc)
	assert.Equal(t, "PRD-001", enriched[0].ProductID)
	assert.Equal(t, "PRD-003", enriched[2].ProductID)

	SortReport(enriched, SortByDaysUntilExpiry, OrderDesc)
	assert.Equal(t, "PRD-003", enriched[0].ProductID)
	assert.Equal(t, "PRD-001", enriched[2].ProductID)

	SortReport(enriched, SortByProductName, OrderAsc)
	assert.Equal(t, "Oat Milk", enriched[0].ProductName)
	assert.Equal(t, "Whole Milk", enriched[2].ProductName)
}

func TestSortReportStableOnEqualKeys(t *testing.T) {
	cfg := models.DefaultThresholds()
	items := []models.InventoryItem{
		item("X", 2, 1, 1),
		item("Y", 2, 1, 1),
		item("Z", 2, 1, 1),
	}
	enriched := pricing.EnrichAll(items, cfg, today)

	// Equal sort keys in both directions: insertion order survives.
	SortReport(enriched, SortByDaysUntilExpiry, OrderAsc)
	assert.Equal(t, "X", enriched[0].ProductID)
	assert.Equal(t, "Z", enriched[2].ProductID)

	SortReport(enriched, SortByDaysUntilExpiry, OrderDesc)
	assert.Equal(t, "X", enriched[0].ProductID)
	assert.Equal(t, "Z", enriched[2].ProductID)
}

func TestValidSortKey(t *testing.T) {
	assert.True(t, ValidSortKey(SortByDiscount))
	assert.True(t, ValidSortKey(SortByPotentialLoss))
	assert.False(t, ValidSortKey(SortKey("price")))
}
