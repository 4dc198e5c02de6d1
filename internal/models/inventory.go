package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateFormat is the wire format for calendar dates. Time of day is never
// carried; classification works on whole days.
const DateFormat = "2006-01-02"

// Date is a calendar date (no time component) stored as a DATE column and
// serialized as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate builds a Date from any instant, truncating the time of day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateFormat)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateFormat) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return fmt.Errorf("invalid date: empty value")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case nil:
		*d = Date{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into Date", value)
}

// ItemStatus is the expiry tier of an item. It is derived from the expiry
// date and the current threshold configuration on every read and is never
// persisted.
type ItemStatus string

const (
	StatusFresh    ItemStatus = "FRESH"
	StatusModerate ItemStatus = "MODERATE"
	StatusWarning  ItemStatus = "WARNING"
	StatusCritical ItemStatus = "CRITICAL"
	StatusExpired  ItemStatus = "EXPIRED"
)

// ValidStatus reports whether s is one of the five known tiers.
func ValidStatus(s ItemStatus) bool {
	switch s {
	case StatusFresh, StatusModerate, StatusWarning, StatusCritical, StatusExpired:
		return true
	}
	return false
}

// InventoryItem is a single perishable batch. Records are immutable in
// spirit: edits replace the row wholesale and DateAdded never changes.
// Seq preserves insertion order for stable listings and tie-breaking.
type InventoryItem struct {
	ID  uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Seq int64     `json:"-" gorm:"autoIncrement;uniqueIndex"`

	ProductID   string `json:"productId" gorm:"type:varchar(100);not null;uniqueIndex:idx_items_product_id"`
	ProductName string `json:"productName" gorm:"type:varchar(255);not null"`
	BatchNumber string `json:"batchNumber" gorm:"type:varchar(100);not null"`
	Category    string `json:"category" gorm:"type:varchar(100)"`
	Location    string `json:"location" gorm:"type:varchar(255)"`
	Notes       string `json:"notes" gorm:"type:text"`

	ExpiryDate Date `json:"expiryDate" gorm:"type:date;not null"`
	DateAdded  Date `json:"dateAdded" gorm:"type:date;not null"`

	Quantity      int     `json:"quantity" gorm:"not null;default:0"`
	Price         float64 `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
	ShelfLifeDays int     `json:"shelfLifeDays" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// Validate checks the field constraints that binding tags cannot cover for
// items arriving through import payloads rather than bound requests.
func (i *InventoryItem) Validate() error {
	if strings.TrimSpace(i.ProductID) == "" {
		return fmt.Errorf("productId is required")
	}
	if strings.TrimSpace(i.ProductName) == "" {
		return fmt.Errorf("productName is required")
	}
	if strings.TrimSpace(i.BatchNumber) == "" {
		return fmt.Errorf("batchNumber is required")
	}
	if i.ExpiryDate.IsZero() {
		return fmt.Errorf("expiryDate is required")
	}
	if i.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	if i.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if i.ShelfLifeDays < 0 {
		return fmt.Errorf("shelfLifeDays must not be negative")
	}
	return nil
}

// ThresholdConfig drives the discount cascade. A single row (ID 1) holds
// the process-wide configuration; reads fall back to defaults when the
// row is missing.
type ThresholdConfig struct {
	ID uint `json:"-" gorm:"primary_key"`

	CriticalDays int `json:"criticalDays" gorm:"not null;default:3"`
	WarningDays  int `json:"warningDays" gorm:"not null;default:7"`
	ModerateDays int `json:"moderateDays" gorm:"not null;default:14"`

	DiscountCritical int `json:"discountCritical" gorm:"not null;default:50"`
	DiscountWarning  int `json:"discountWarning" gorm:"not null;default:30"`
	DiscountModerate int `json:"discountModerate" gorm:"not null;default:15"`
	MaxDiscount      int `json:"maxDiscount" gorm:"not null;default:50"`

	CurrencySymbol string `json:"currencySymbol" gorm:"type:varchar(10);not null;default:'$'"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func (ThresholdConfig) TableName() string {
	return "threshold_config"
}

// SettingsRowID is the fixed primary key of the single configuration row.
const SettingsRowID uint = 1

// DefaultThresholds returns the stock configuration: 3/7/14 day boundaries
// with 50/30/15 percent discounts and a 50 percent cap for expired items.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		ID:               SettingsRowID,
		CriticalDays:     3,
		WarningDays:      7,
		ModerateDays:     14,
		DiscountCritical: 50,
		DiscountWarning:  30,
		DiscountModerate: 15,
		MaxDiscount:      50,
		CurrencySymbol:   "$",
	}
}

// Validate enforces ordered day boundaries and percentage ranges. The
// cascade is only monotonic when criticalDays <= warningDays <=
// moderateDays, so out-of-order boundaries are rejected on write.
func (c *ThresholdConfig) Validate() error {
	if c.CriticalDays < 0 || c.WarningDays < 0 || c.ModerateDays < 0 {
		return fmt.Errorf("day thresholds must not be negative")
	}
	if c.CriticalDays > c.WarningDays {
		return fmt.Errorf("criticalDays (%d) must not exceed warningDays (%d)", c.CriticalDays, c.WarningDays)
	}
	if c.WarningDays > c.ModerateDays {
		return fmt.Errorf("warningDays (%d) must not exceed moderateDays (%d)", c.WarningDays, c.ModerateDays)
	}
	for name, pct := range map[string]int{
		"discountCritical": c.DiscountCritical,
		"discountWarning":  c.DiscountWarning,
		"discountModerate": c.DiscountModerate,
		"maxDiscount":      c.MaxDiscount,
	} {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %d", name, pct)
		}
	}
	return nil
}

// EnrichedItem is an InventoryItem plus everything the classifier derives
// for a specific "today". Never stored.
type EnrichedItem struct {
	InventoryItem

	DaysUntilExpiry     int        `json:"daysUntilExpiry"`
	Status              ItemStatus `json:"status"`
	DiscountPercent     int        `json:"discountPercent"`
	DiscountedPrice     float64    `json:"discountedPrice"`
	LineTotalOriginal   float64    `json:"lineTotalOriginal"`
	LineTotalDiscounted float64    `json:"lineTotalDiscounted"`
	PotentialLoss       float64    `json:"potentialLoss"`
}

// Stats is the dashboard aggregate over the whole collection.
type Stats struct {
	TotalItems    int     `json:"totalItems"`
	TotalQuantity int     `json:"totalQuantity"`
	TotalValue    float64 `json:"totalValue"`

	Expired  int `json:"expired"`
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Moderate int `json:"moderate"`
	Fresh    int `json:"fresh"`

	// NeedsDiscount is the critical+warning summary bucket; moderate items
	// are tracked independently and not counted here.
	NeedsDiscount int `json:"needsDiscount"`

	PotentialLoss float64 `json:"potentialLoss"`
}

// Financials is the report-page money overview.
type Financials struct {
	TotalOriginalValue   float64 `json:"totalOriginalValue"`
	TotalDiscountedValue float64 `json:"totalDiscountedValue"`
	DiscountImpact       float64 `json:"discountImpact"`
	AverageDiscount      float64 `json:"averageDiscount"`
}

// Alert is one entry of the priority alert list.
type Alert struct {
	ProductID       string     `json:"productId"`
	ProductName     string     `json:"productName"`
	BatchNumber     string     `json:"batchNumber"`
	DaysUntilExpiry int        `json:"daysUntilExpiry"`
	Status          ItemStatus `json:"status"`
	DiscountPercent int        `json:"discountPercent"`
}

// BackupPayload is the JSON import/export structure. Absent fields leave
// the corresponding state untouched on import; an explicit empty inventory
// array replaces the collection with nothing, so exports always carry the
// array even when empty and an empty collection round-trips.
type BackupPayload struct {
	Inventory  []InventoryItem  `json:"inventory"`
	Settings   *ThresholdConfig `json:"settings,omitempty"`
	ExportedAt string           `json:"exportedAt,omitempty"`
}

// Request models

type CreateItemRequest struct {
	ProductID     string   `json:"productId" binding:"required,min=1,max=100"`
	ProductName   string   `json:"productName" binding:"required,min=1,max=255"`
	BatchNumber   string   `json:"batchNumber" binding:"required,min=1,max=100"`
	Category      string   `json:"category,omitempty"`
	Location      string   `json:"location,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	ExpiryDate    Date     `json:"expiryDate" binding:"required"`
	Quantity      *int     `json:"quantity" binding:"required,gte=0"`
	Price         *float64 `json:"price" binding:"required,gte=0"`
	ShelfLifeDays int      `json:"shelfLifeDays" binding:"gte=0"`
}

type UpdateItemRequest struct {
	ProductName   string   `json:"productName" binding:"required,min=1,max=255"`
	BatchNumber   string   `json:"batchNumber" binding:"required,min=1,max=100"`
	Category      string   `json:"category,omitempty"`
	Location      string   `json:"location,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	ExpiryDate    Date     `json:"expiryDate" binding:"required"`
	Quantity      *int     `json:"quantity" binding:"required,gte=0"`
	Price         *float64 `json:"price" binding:"required,gte=0"`
	ShelfLifeDays int      `json:"shelfLifeDays" binding:"gte=0"`
}

type UpdateSettingsRequest struct {
	CriticalDays     *int    `json:"criticalDays,omitempty"`
	WarningDays      *int    `json:"warningDays,omitempty"`
	ModerateDays     *int    `json:"moderateDays,omitempty"`
	DiscountCritical *int    `json:"discountCritical,omitempty"`
	DiscountWarning  *int    `json:"discountWarning,omitempty"`
	DiscountModerate *int    `json:"discountModerate,omitempty"`
	MaxDiscount      *int    `json:"maxDiscount,omitempty"`
	CurrencySymbol   *string `json:"currencySymbol,omitempty"`
}

// Response models

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type ItemResponse struct {
	Success bool           `json:"success"`
	Data    *InventoryItem `json:"data,omitempty"`
	Message *string        `json:"message,omitempty"`
}

type EnrichedItemResponse struct {
	Success bool          `json:"success"`
	Data    *EnrichedItem `json:"data,omitempty"`
}

type ItemListResponse struct {
	Success    bool           `json:"success"`
	Data       []EnrichedItem `json:"data"`
	TotalItems int            `json:"totalItems"`
	Filtered   int            `json:"filtered"`
}

type StatsResponse struct {
	Success bool   `json:"success"`
	Data    *Stats `json:"data,omitempty"`
}

type AlertListResponse struct {
	Success bool    `json:"success"`
	Data    []Alert `json:"data"`
}

type ReportResponse struct {
	Success    bool           `json:"success"`
	Data       []EnrichedItem `json:"data"`
	Financials *Financials    `json:"financials,omitempty"`
}

type SettingsResponse struct {
	Success bool             `json:"success"`
	Data    *ThresholdConfig `json:"data,omitempty"`
	Message *string          `json:"message,omitempty"`
}
