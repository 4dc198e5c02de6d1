package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"expiry-tracker/internal/events"
	"expiry-tracker/internal/models"
	"expiry-tracker/internal/pricing"
	"expiry-tracker/internal/reports"
	"expiry-tracker/internal/repository"
	"gorm.io/gorm"
)

type ItemHandler struct {
	repo           repository.ItemRepositoryInterface
	eventPublisher *events.TrackerEventPublisher

	// now supplies "today" for classification; injected so tests can pin
	// the clock and classification stays deterministic.
	now func() time.Time
}

func NewItemHandler(repo repository.ItemRepositoryInterface, eventPublisher *events.TrackerEventPublisher) *ItemHandler {
	return &ItemHandler{
		repo:           repo,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// NewItemHandlerWithClock builds a handler with a fixed clock for tests.
func NewItemHandlerWithClock(repo repository.ItemRepositoryInterface, eventPublisher *events.TrackerEventPublisher, now func() time.Time) *ItemHandler {
	h := NewItemHandler(repo, eventPublisher)
	h.now = now
	return h
}

func stringPtr(s string) *string {
	return &s
}

// ========== Item Handlers ==========

// CreateItem adds a new inventory item
// POST /api/v1/items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req models.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	item := &models.InventoryItem{
		ProductID:     req.ProductID,
		ProductName:   req.ProductName,
		BatchNumber:   req.BatchNumber,
		Category:      req.Category,
		Location:      req.Location,
		Notes:         req.Notes,
		ExpiryDate:    req.ExpiryDate,
		DateAdded:     models.NewDate(h.now()),
		Quantity:      *req.Quantity,
		Price:         *req.Price,
		ShelfLifeDays: req.ShelfLifeDays,
	}

	if err := h.repo.CreateItem(c.Request.Context(), item); err != nil {
		if errors.Is(err, repository.ErrDuplicateProductID) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "DUPLICATE_PRODUCT_ID",
					Message: "Product ID '" + req.ProductID + "' already exists",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATION_FAILED",
				Message: "Failed to create inventory item",
			},
		})
		return
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.PublishItemAdded(c.Request.Context(), item)
	}

	c.JSON(http.StatusCreated, models.ItemResponse{
		Success: true,
		Data:    item,
		Message: stringPtr("Item added successfully"),
	})
}

// ListItems returns the collection enriched with live classification,
// optionally narrowed by ?search, ?category and ?status filters
// GET /api/v1/items
func (h *ItemHandler) ListItems(c *gin.Context) {
	items, err := h.repo.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve inventory items",
			},
		})
		return
	}

	cfg, err := h.repo.GetSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve settings",
			},
		})
		return
	}

	statuses := make([]models.ItemStatus, 0)
	for _, s := range c.QueryArray("status") {
		status := models.ItemStatus(s)
		if !models.ValidStatus(status) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "INVALID_STATUS",
					Message: "Unknown status filter: " + s,
				},
			})
			return
		}
		statuses = append(statuses, status)
	}

	enriched := pricing.EnrichAll(items, *cfg, h.now())
	filtered := reports.FilterItems(enriched, reports.Filter{
		Search:     c.Query("search"),
		Categories: c.QueryArray("category"),
		Statuses:   statuses,
	})

	c.JSON(http.StatusOK, models.ItemListResponse{
		Success:    true,
		Data:       filtered,
		TotalItems: len(items),
		Filtered:   len(filtered),
	})
}

// GetItem returns a single enriched item
// GET /api/v1/items/:productId
func (h *ItemHandler) GetItem(c *gin.Context) {
	productID := c.Param("productId")

	item, err := h.repo.GetItemByProductID(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Item not found",
			},
		})
		return
	}

	cfg, err := h.repo.GetSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve settings",
			},
		})
		return
	}

	enriched := pricing.Enrich(*item, *cfg, h.now())
	c.JSON(http.StatusOK, models.EnrichedItemResponse{
		Success: true,
		Data:    &enriched,
	})
}

// UpdateItem replaces an item's fields. The productId addresses the item
// and never changes; dateAdded is preserved from the stored record.
// PUT /api/v1/items/:productId
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	productID := c.Param("productId")

	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	existing, err := h.repo.GetItemByProductID(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Item not found",
			},
		})
		return
	}

	existing.ProductName = req.ProductName
	existing.BatchNumber = req.BatchNumber
	existing.Category = req.Category
	existing.Location = req.Location
	existing.Notes = req.Notes
	existing.ExpiryDate = req.ExpiryDate
	existing.Quantity = *req.Quantity
	existing.Price = *req.Price
	existing.ShelfLifeDays = req.ShelfLifeDays

	if err := h.repo.UpdateItem(c.Request.Context(), existing); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to update inventory item",
			},
		})
		return
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.PublishItemUpdated(c.Request.Context(), existing)
	}

	c.JSON(http.StatusOK, models.ItemResponse{
		Success: true,
		Data:    existing,
		Message: stringPtr("Item updated successfully"),
	})
}

// DeleteItem removes a single item
// DELETE /api/v1/items/:productId
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	productID := c.Param("productId")

	if err := h.repo.DeleteItemByProductID(c.Request.Context(), productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Item not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete inventory item",
			},
		})
		return
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.PublishItemDeleted(c.Request.Context(), productID)
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Item deleted successfully"),
	})
}

// ClearItems removes the whole collection
// DELETE /api/v1/items
func (h *ItemHandler) ClearItems(c *gin.Context) {
	if err := h.repo.ClearItems(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to clear inventory",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("All inventory items cleared"),
	})
}

// ========== Dashboard Handlers ==========

// GetStats returns the dashboard aggregate
// GET /api/v1/dashboard/stats
func (h *ItemHandler) GetStats(c *gin.Context) {
	items, cfg, ok := h.loadCollection(c)
	if !ok {
		return
	}

	stats := reports.ComputeStats(items, *cfg, h.now())
	c.JSON(http.StatusOK, models.StatsResponse{
		Success: true,
		Data:    &stats,
	})
}

// GetAlerts returns the top-5 priority alert list
// GET /api/v1/dashboard/alerts
func (h *ItemHandler) GetAlerts(c *gin.Context) {
	items, cfg, ok := h.loadCollection(c)
	if !ok {
		return
	}

	alerts := reports.ComputeAlerts(items, *cfg, h.now())
	c.JSON(http.StatusOK, models.AlertListResponse{
		Success: true,
		Data:    alerts,
	})
}

// CheckExpiries recomputes the alert list and publishes it as an
// inventory.expiry.alert event for downstream consumers
// POST /api/v1/dashboard/alerts/check
func (h *ItemHandler) CheckExpiries(c *gin.Context) {
	items, cfg, ok := h.loadCollection(c)
	if !ok {
		return
	}

	alerts := reports.ComputeAlerts(items, *cfg, h.now())
	if h.eventPublisher != nil {
		_ = h.eventPublisher.PublishExpiryAlerts(c.Request.Context(), alerts)
	}

	c.JSON(http.StatusOK, models.AlertListResponse{
		Success: true,
		Data:    alerts,
	})
}

// ========== Report Handlers ==========

// GetReport returns sorted/filtered enriched rows plus the money overview
// GET /api/v1/reports?sortBy=...&order=...&search=...&category=...&status=...
func (h *ItemHandler) GetReport(c *gin.Context) {
	items, cfg, ok := h.loadCollection(c)
	if !ok {
		return
	}

	sortKey := reports.SortKey(c.DefaultQuery("sortBy", string(reports.SortByDaysUntilExpiry)))
	if !reports.ValidSortKey(sortKey) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_SORT_KEY",
				Message: "Unknown sort key: " + string(sortKey),
			},
		})
		return
	}

	order := reports.SortOrder(c.DefaultQuery("order", string(reports.OrderAsc)))
	if order != reports.OrderAsc && order != reports.OrderDesc {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_SORT_ORDER",
				Message: "Sort order must be asc or desc",
			},
		})
		return
	}

	statuses := make([]models.ItemStatus, 0)
	for _, s := range c.QueryArray("status") {
		status := models.ItemStatus(s)
		if !models.ValidStatus(status) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "INVALID_STATUS",
					Message: "Unknown status filter: " + s,
				},
			})
			return
		}
		statuses = append(statuses, status)
	}

	today := h.now()
	enriched := pricing.EnrichAll(items, *cfg, today)
	filtered := reports.FilterItems(enriched, reports.Filter{
		Search:     c.Query("search"),
		Categories: c.QueryArray("category"),
		Statuses:   statuses,
	})
	reports.SortReport(filtered, sortKey, order)

	financials := reports.ComputeFinancials(items, *cfg, today)
	c.JSON(http.StatusOK, models.ReportResponse{
		Success:    true,
		Data:       filtered,
		Financials: &financials,
	})
}

// ========== Settings Handlers ==========

// GetSettings returns the current threshold configuration
// GET /api/v1/settings
func (h *ItemHandler) GetSettings(c *gin.Context) {
	cfg, err := h.repo.GetSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve settings",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SettingsResponse{
		Success: true,
		Data:    cfg,
	})
}

// UpdateSettings applies a partial settings update after validating the
// resulting configuration
// PUT /api/v1/settings
func (h *ItemHandler) UpdateSettings(c *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	cfg, err := h.repo.GetSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve settings",
			},
		})
		return
	}

	if req.CriticalDays != nil {
		cfg.CriticalDays = *req.CriticalDays
	}
	if req.WarningDays != nil {
		cfg.WarningDays = *req.WarningDays
	}
	if req.ModerateDays != nil {
		cfg.ModerateDays = *req.ModerateDays
	}
	if req.DiscountCritical != nil {
		cfg.DiscountCritical = *req.DiscountCritical
	}
	if req.DiscountWarning != nil {
		cfg.DiscountWarning = *req.DiscountWarning
	}
	if req.DiscountModerate != nil {
		cfg.DiscountModerate = *req.DiscountModerate
	}
	if req.MaxDiscount != nil {
		cfg.MaxDiscount = *req.MaxDiscount
	}
	if req.CurrencySymbol != nil {
		cfg.CurrencySymbol = *req.CurrencySymbol
	}

	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if err := h.repo.SaveSettings(c.Request.Context(), cfg); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to save settings",
			},
		})
		return
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.PublishSettingsUpdated(c.Request.Context(), cfg)
	}

	c.JSON(http.StatusOK, models.SettingsResponse{
		Success: true,
		Data:    cfg,
		Message: stringPtr("Settings saved successfully"),
	})
}

// ResetSettings restores the default configuration
// POST /api/v1/settings/reset
func (h *ItemHandler) ResetSettings(c *gin.Context) {
	cfg, err := h.repo.ResetSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to reset settings",
			},
		})
		return
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.PublishSettingsUpdated(c.Request.Context(), cfg)
	}

	c.JSON(http.StatusOK, models.SettingsResponse{
		Success: true,
		Data:    cfg,
		Message: stringPtr("Settings reset to defaults"),
	})
}

// loadCollection fetches items and settings, writing the error response
// itself when either read fails.
func (h *ItemHandler) loadCollection(c *gin.Context) ([]models.InventoryItem, *models.ThresholdConfig, bool) {
	items, err := h.repo.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve inventory items",
			},
		})
		return nil, nil, false
	}

	cfg, err := h.repo.GetSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve settings",
			},
		})
		return nil, nil, false
	}

	return items, cfg, true
}
