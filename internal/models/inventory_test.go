package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDate_JSONRoundTrip(t *testing.T) {
	d, err := ParseDate("2026-03-10")
	assert.NoError(t, err)

	data, err := json.Marshal(d)
	assert.NoError(t, err)
	assert.Equal(t, `"2026-03-10"`, string(data))

	var parsed Date
	assert.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, d, parsed)
}

func TestDate_RejectsMalformed(t *testing.T) {
	for _, input := range []string{"10/03/2026", "2026-3-10", "not-a-date", ""} {
		var d Date
		err := json.Unmarshal([]byte(`"`+input+`"`), &d)
		assert.Error(t, err, "input %q should not parse", input)
	}
}

func TestNewDate_TruncatesTimeOfDay(t *testing.T) {
	d := NewDate(time.Date(2026, 3, 10, 23, 59, 58, 0, time.UTC))
	assert.Equal(t, "2026-03-10", d.String())
	assert.Equal(t, 0, d.Hour())
}

func TestDefaultThresholds(t *testing.T) {
	cfg := DefaultThresholds()
	assert.Equal(t, 3, cfg.CriticalDays)
	assert.Equal(t, 7, cfg.WarningDays)
	assert.Equal(t, 14, cfg.ModerateDays)
	assert.Equal(t, 50, cfg.DiscountCritical)
	assert.Equal(t, 30, cfg.DiscountWarning)
	assert.Equal(t, 15, cfg.DiscountModerate)
	assert.Equal(t, 50, cfg.MaxDiscount)
	assert.Equal(t, "$", cfg.CurrencySymbol)
	assert.NoError(t, cfg.Validate())
}

func TestThresholdConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ThresholdConfig)
		wantErr bool
	}{
		{"defaults", func(c *ThresholdConfig) {}, false},
		{"equal boundaries", func(c *ThresholdConfig) {
			c.CriticalDays, c.WarningDays, c.ModerateDays = 5, 5, 5
		}, false},
		{"critical above warning", func(c *ThresholdConfig) { c.CriticalDays = 10 }, true},
		{"warning above moderate", func(c *ThresholdConfig) { c.WarningDays = 20 }, true},
		{"negative days", func(c *ThresholdConfig) { c.CriticalDays = -1 }, true},
		{"discount above 100", func(c *ThresholdConfig) { c.DiscountCritical = 101 }, true},
		{"negative discount", func(c *ThresholdConfig) { c.DiscountModerate = -5 }, true},
		{"max discount above 100", func(c *ThresholdConfig) { c.MaxDiscount = 150 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultThresholds()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInventoryItem_Validate(t *testing.T) {
	valid := InventoryItem{
		ProductID:   "MILK-001",
		ProductName: "Whole Milk",
		BatchNumber: "B-117",
		ExpiryDate:  NewDate(time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)),
		Quantity:    24,
		Price:       2.49,
	}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.ProductID = "  "
	assert.Error(t, missing.Validate())

	negative := valid
	negative.Price = -1
	assert.Error(t, negative.Validate())

	noExpiry := valid
	noExpiry.ExpiryDate = Date{}
	assert.Error(t, noExpiry.Validate())
}
