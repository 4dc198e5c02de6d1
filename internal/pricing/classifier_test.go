package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"expiry-tracker/internal/models"
)

var today = time.Date(2026, 3, 10, 15, 42, 7, 0, time.UTC)

func dateIn(days int) time.Time {
	return today.AddDate(0, 0, days)
}

func TestDaysUntilExpiry(t *testing.T) {
	tests := []struct {
		name   string
		expiry time.Time
		want   int
	}{
		{"same day", today, 0},
		{"tomorrow", dateIn(1), 1},
		{"next week", dateIn(7), 7},
		{"yesterday", dateIn(-1), -1},
		{"long expired", dateIn(-30), -30},
		{"time of day ignored", time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilExpiry(tt.expiry, today))
		})
	}
}

func TestClassifyTiers(t *testing.T) {
	cfg := models.DefaultThresholds()

	tests := []struct {
		name         string
		daysOut      int
		wantStatus   models.ItemStatus
		wantDiscount int
	}{
		{"expired today", 0, models.StatusExpired, 50},
		{"long expired", -5, models.StatusExpired, 50},
		{"one day left", 1, models.StatusCritical, 50},
		{"critical boundary inclusive", 3, models.StatusCritical, 50},
		{"just past critical", 4, models.StatusWarning, 30},
		{"warning boundary inclusive", 7, models.StatusWarning, 30},
		{"just past warning", 8, models.StatusModerate, 15},
		{"moderate boundary inclusive", 14, models.StatusModerate, 15},
		{"just past moderate", 15, models.StatusFresh, 0},
		{"far out", 90, models.StatusFresh, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, discount := Classify(dateIn(tt.daysOut), today, cfg)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantDiscount, discount)
		})
	}
}

func TestClassifyExpiredIgnoresOtherThresholds(t *testing.T) {
	// Expired wins regardless of how the remaining tiers are configured.
	cfg := models.ThresholdConfig{
		CriticalDays:     0,
		WarningDays:      0,
		ModerateDays:     0,
		DiscountCritical: 10,
		DiscountWarning:  5,
		DiscountModerate: 1,
		MaxDiscount:      80,
	}

	for _, days := range []int{0, -1, -100} {
		status, discount := Classify(dateIn(days), today, cfg)
		assert.Equal(t, models.StatusExpired, status)
		assert.Equal(t, 80, discount)
	}
}

func TestClassifyUsesCurrentConfig(t *testing.T) {
	cfg := models.DefaultThresholds()

	status, _ := Classify(dateIn(5), today, cfg)
	assert.Equal(t, models.StatusWarning, status)

	// Widening the critical window reclassifies the same item.
	cfg.CriticalDays = 6
	status, discount := Classify(dateIn(5), today, cfg)
	assert.Equal(t, models.StatusCritical, status)
	assert.Equal(t, cfg.DiscountCritical, discount)
}

func TestDiscountedPrice(t *testing.T) {
	assert.InDelta(t, 50.0, DiscountedPrice(100.0, 50), 1e-9)
	assert.InDelta(t, 85.0, DiscountedPrice(100.0, 15), 1e-9)
	assert.InDelta(t, 100.0, DiscountedPrice(100.0, 0), 1e-9)
	assert.InDelta(t, 0.0, DiscountedPrice(100.0, 100), 1e-9)
}

func TestEnrichCriticalItem(t *testing.T) {
	// Item 2 days out, price 100, quantity 10 under default config:
	// CRITICAL, 50% discount, 50.00 unit price, 500.00 line total,
	// 250.00 report-row loss.
	item := models.InventoryItem{
		ProductID:   "PRD-001",
		ProductName: "Milk",
		BatchNumber: "BATCH-001",
		ExpiryDate:  models.NewDate(dateIn(2)),
		Quantity:    10,
		Price:       100.0,
	}

	enriched := Enrich(item, models.DefaultThresholds(), today)

	assert.Equal(t, 2, enriched.DaysUntilExpiry)
	assert.Equal(t, models.StatusCritical, enriched.Status)
	assert.Equal(t, 50, enriched.DiscountPercent)
	assert.InDelta(t, 50.0, enriched.DiscountedPrice, 1e-9)
	assert.InDelta(t, 1000.0, enriched.LineTotalOriginal, 1e-9)
	assert.InDelta(t, 500.0, enriched.LineTotalDiscounted, 1e-9)
	assert.InDelta(t, 500.0, enriched.PotentialLoss, 1e-9)
}

func TestEnrichFreshItemHasNoLoss(t *testing.T) {
	item := models.InventoryItem{
		ProductID:  "PRD-002",
		ExpiryDate: models.NewDate(dateIn(60)),
		Quantity:   4,
		Price:      2.5,
	}

	enriched := Enrich(item, models.DefaultThresholds(), today)

	assert.Equal(t, models.StatusFresh, enriched.Status)
	assert.Equal(t, 0, enriched.DiscountPercent)
	assert.InDelta(t, 10.0, enriched.LineTotalOriginal, 1e-9)
	assert.InDelta(t, 10.0, enriched.LineTotalDiscounted, 1e-9)
	assert.InDelta(t, 0.0, enriched.PotentialLoss, 1e-9)
}

func TestEnrichAllPreservesOrder(t *testing.T) {
	items := []models.InventoryItem{
		{ProductID: "A", ExpiryDate: models.NewDate(dateIn(20)), Price: 1, Quantity: 1},
		{ProductID: "B", ExpiryDate: models.NewDate(dateIn(-1)), Price: 1, Quantity: 1},
		{ProductID: "C", ExpiryDate: models.NewDate(dateIn(5)), Price: 1, Quantity: 1},
	}

	enriched := EnrichAll(items, models.DefaultThresholds(), today)

	assert.Len(t, enriched, 3)
	assert.Equal(t, "A", enriched[0].ProductID)
	assert.Equal(t, "B", enriched[1].ProductID)
	assert.Equal(t, "C", enriched[2].ProductID)

	assert.Empty(t, EnrichAll(nil, models.DefaultThresholds(), today))
}
