package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"expiry-tracker/internal/models"
	"expiry-tracker/internal/pricing"
	"expiry-tracker/internal/reports"
	"expiry-tracker/internal/repository"
)

// ExportHandler serves the JSON backup round-trip and the tabular
// inventory/report/summary downloads.
type ExportHandler struct {
	repo repository.ItemRepositoryInterface
	now  func() time.Time
}

func NewExportHandler(repo repository.ItemRepositoryInterface) *ExportHandler {
	return &ExportHandler{
		repo: repo,
		now:  time.Now,
	}
}

// NewExportHandlerWithClock builds a handler with a fixed clock for tests.
func NewExportHandlerWithClock(repo repository.ItemRepositoryInterface, now func() time.Time) *ExportHandler {
	h := NewExportHandler(repo)
	h.now = now
	return h
}

// ========== JSON Backup ==========

// ExportBackup downloads the full application state as a JSON document
// that ImportBackup accepts unchanged.
// GET /api/v1/export
func (h *ExportHandler) ExportBackup(c *gin.Context) {
	items, err := h.repo.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EXPORT_FAILED",
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
				Code:    "EXPORT_FAILED",
				Message: "Failed to retrieve settings",
			},
		})
		return
	}

	// Empty collections export as [] so the backup round-trips: importing
	// it clears the collection rather than leaving it untouched.
	if items == nil {
		items = []models.InventoryItem{}
	}

	payload := models.BackupPayload{
		Inventory:  items,
		Settings:   cfg,
		ExportedAt: h.now().Format("2006-01-02 15:04:05"),
	}

	filename := fmt.Sprintf("inventory_backup_%s.json", h.now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.JSON(http.StatusOK, payload)
}

// ImportBackup restores application state from a backup document. The
// payload is validated in full before anything is written: a single bad
// row rejects the whole import and leaves current state untouched.
// Absent sections are left as they are, so a settings-only or
// inventory-only backup is a legal partial import.
// POST /api/v1/import
func (h *ExportHandler) ImportBackup(c *gin.Context) {
	var payload models.BackupPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "IMPORT_ERROR",
				Message: "Malformed backup payload: " + err.Error(),
			},
		})
		return
	}

	if payload.Inventory == nil && payload.Settings == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "IMPORT_ERROR",
				Message: "Backup payload contains neither inventory nor settings",
			},
		})
		return
	}

	if payload.Inventory != nil {
		seen := make(map[string]bool, len(payload.Inventory))
		for i := range payload.Inventory {
			item := &payload.Inventory[i]
			if err := item.Validate(); err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Success: false,
					Error: models.Error{
						Code:    "IMPORT_ERROR",
						Message: fmt.Sprintf("Invalid item at index %d: %s", i, err.Error()),
					},
				})
				return
			}
			if seen[item.ProductID] {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Success: false,
					Error: models.Error{
						Code:    "IMPORT_ERROR",
						Message: fmt.Sprintf("Duplicate productId '%s' in backup payload", item.ProductID),
					},
				})
				return
			}
			seen[item.ProductID] = true
			if item.DateAdded.IsZero() {
				item.DateAdded = models.NewDate(h.now())
			}
		}
	}

	if payload.Settings != nil {
		if err := payload.Settings.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "IMPORT_ERROR",
					Message: "Invalid settings in backup payload: " + err.Error(),
				},
			})
			return
		}
	}

	if err := h.repo.ImportState(c.Request.Context(), payload.Inventory, payload.Settings); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "IMPORT_ERROR",
				Message: "Failed to apply backup",
			},
		})
		return
	}

	restored := make([]string, 0, 2)
	if payload.Inventory != nil {
		restored = append(restored, fmt.Sprintf("%d items", len(payload.Inventory)))
	}
	if payload.Settings != nil {
		restored = append(restored, "settings")
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Backup restored: " + strings.Join(restored, ", ")),
	})
}

// ========== Tabular Exports ==========

// ExportInventoryCSV downloads the raw collection as CSV. Derived fields
// are excluded: the file reflects stored state only.
// GET /api/v1/export/inventory
func (h *ExportHandler) ExportInventoryCSV(c *gin.Context) {
	items, err := h.repo.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EXPORT_FAILED",
				Message: "Failed to retrieve inventory items",
			},
		})
		return
	}

	h.writeCSVAttachment(c, "inventory", reports.ToInventoryRows(items))
}

// ExportReport downloads the enriched report as CSV or XLSX, honoring the
// same sortBy/order parameters as the report endpoint.
// GET /api/v1/export/report?format=csv|xlsx
func (h *ExportHandler) ExportReport(c *gin.Context) {
	items, err := h.repo.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EXPORT_FAILED",
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
				Code:    "EXPORT_FAILED",
				Message: "Failed to retrieve settings",
			},
		})
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

	enriched := pricing.EnrichAll(items, *cfg, h.now())
	reports.SortReport(enriched, sortKey, order)
	rows := reports.ToReportRows(enriched)

	if c.DefaultQuery("format", "csv") == "xlsx" {
		h.writeXLSXAttachment(c, "discount_report", rows)
		return
	}
	h.writeCSVAttachment(c, "discount_report", rows)
}

// ExportSummaryCSV downloads the four-row metric/value summary.
// GET /api/v1/export/summary
func (h *ExportHandler) ExportSummaryCSV(c *gin.Context) {
	items, err := h.repo.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EXPORT_FAILED",
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
				Code:    "EXPORT_FAILED",
				Message: "Failed to retrieve settings",
			},
		})
		return
	}

	stats := reports.ComputeStats(items, *cfg, h.now())
	h.writeCSVAttachment(c, "summary", reports.ToSummaryRows(stats))
}

func (h *ExportHandler) writeCSVAttachment(c *gin.Context, base string, rows [][]string) {
	filename := fmt.Sprintf("%s_%s.csv", base, h.now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	if err := reports.WriteCSV(c.Writer, rows); err != nil {
		_ = c.Error(err)
	}
}

func (h *ExportHandler) writeXLSXAttachment(c *gin.Context, base string, rows [][]string) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Report"
	f.SetSheetName("Sheet1", sheet)

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			f.SetCellValue(sheet, cell, value)
		}
	}

	// Style header row
	if len(rows) > 0 {
		headerStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		})
		if err == nil {
			endCell, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
			f.SetCellStyle(sheet, "A1", endCell, headerStyle)
		}
		for colIdx := range rows[0] {
			col, _ := excelize.ColumnNumberToName(colIdx + 1)
			f.SetColWidth(sheet, col, col, 18)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EXPORT_FAILED",
				Message: "Failed to generate XLSX file",
			},
		})
		return
	}

	filename := fmt.Sprintf("%s_%s.xlsx", base, h.now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
