package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"expiry-tracker/internal/models"
	"expiry-tracker/internal/repository"
)

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"totalRows"`
	SuccessCount int              `json:"successCount"`
	FailedCount  int              `json:"failedCount"`
	SkippedCount int              `json:"skippedCount"`
	Errors       []ImportRowError `json:"errors,omitempty"`
	CreatedIDs   []string         `json:"createdIds,omitempty"`
}

type ImportHandler struct {
	repo repository.ItemRepositoryInterface
	now  func() time.Time
}

func NewImportHandler(repo repository.ItemRepositoryInterface) *ImportHandler {
	return &ImportHandler{repo: repo, now: time.Now}
}

// NewImportHandlerWithClock builds a handler with a fixed clock for tests.
func NewImportHandlerWithClock(repo repository.ItemRepositoryInterface, now func() time.Time) *ImportHandler {
	h := NewImportHandler(repo)
	h.now = now
	return h
}

// ItemImportTemplate returns the template for inventory items
func ItemImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "items",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "productId", Description: "Unique product identifier", Required: true, Type: "string", Example: "MILK-001"},
			{Name: "productName", Description: "Product name", Required: true, Type: "string", Example: "Whole Milk 1L"},
			{Name: "batchNumber", Description: "Batch or lot number", Required: true, Type: "string", Example: "B-2024-117"},
			{Name: "expiryDate", Description: "Expiry date (YYYY-MM-DD)", Required: true, Type: "date", Example: "2026-09-15"},
			{Name: "quantity", Description: "Units on hand", Required: true, Type: "number", Example: "24"},
			{Name: "price", Description: "Unit price", Required: true, Type: "number", Example: "2.49"},
			{Name: "shelfLifeDays", Description: "Shelf life in days", Required: false, Type: "number", Example: "14"},
			{Name: "category", Description: "Product category", Required: false, Type: "string", Example: "Dairy"},
			{Name: "location", Description: "Storage location", Required: false, Type: "string", Example: "Fridge A3"},
			{Name: "notes", Description: "Additional notes", Required: false, Type: "string", Example: "Promo batch"},
		},
		SampleData: []map[string]string{
			{
				"productId":     "MILK-001",
				"productName":   "Whole Milk 1L",
				"batchNumber":   "B-2024-117",
				"expiryDate":    "2026-09-15",
				"quantity":      "24",
				"price":         "2.49",
				"shelfLifeDays": "14",
				"category":      "Dairy",
				"location":      "Fridge A3",
				"notes":         "",
			},
			{
				"productId":     "BRD-042",
				"productName":   "Sourdough Loaf",
				"batchNumber":   "B-2024-118",
				"expiryDate":    "2026-09-02",
				"quantity":      "12",
				"price":         "4.20",
				"shelfLifeDays": "5",
				"category":      "Bakery",
				"location":      "Shelf 2",
				"notes":         "Morning delivery",
			},
		},
	}
}

// GetItemImportTemplate returns the item import template
// GET /api/v1/items/import/template
func (h *ImportHandler) GetItemImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	template := ItemImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template, "items")
	case "xlsx":
		h.generateXLSXTemplate(c, template, "Items")
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "template": template})
	}
}

func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template ImportTemplate, entity string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_import_template.csv", entity))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)

	for _, sample := range template.SampleData {
		row := make([]string, len(template.Columns))
		for i, col := range template.Columns {
			row[i] = sample[col.Name]
		}
		writer.Write(row)
	}
}

func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template ImportTemplate, sheetName string) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 18)
	}

	for rowIdx, sample := range template.SampleData {
		for colIdx, col := range template.Columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, sample[col.Name])
		}
	}

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_import_template.xlsx", strings.ToLower(sheetName)))

	f.Write(c.Writer)
}

// ImportItems imports inventory items from a CSV or Excel file
// POST /api/v1/items/import
func (h *ImportHandler) ImportItems(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FILE_REQUIRED", Message: "Please upload a CSV or Excel file"},
		})
		return
	}
	defer file.Close()

	skipDuplicates := c.DefaultPostForm("skipDuplicates", "false") == "true"
	validateOnly := c.DefaultPostForm("validateOnly", "false") == "true"

	rows, parseErr := h.parseFile(file, header.Filename)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "PARSE_ERROR", Message: parseErr.Error()},
		})
		return
	}

	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "EMPTY_FILE", Message: "The file contains no data rows"},
		})
		return
	}

	result := h.processItemRows(c, rows, skipDuplicates, validateOnly)
	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) parseFile(file io.Reader, filename string) ([]map[string]string, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return h.parseCSV(file)
	} else if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return h.parseXLSX(file)
	}
	return nil, fmt.Errorf("only CSV and XLSX files are supported")
}

func (h *ImportHandler) parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}

	var rows []map[string]string
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(lineNum + 1)
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

func (h *ImportHandler) parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(rowIdx + 2)
		rows = append(rows, row)
	}

	return rows, nil
}

func (h *ImportHandler) processItemRows(c *gin.Context, rows []map[string]string, skipDuplicates, validateOnly bool) *ImportResult {
	result := &ImportResult{
		TotalRows:  len(rows),
		Errors:     make([]ImportRowError, 0),
		CreatedIDs: make([]string, 0),
	}

	// Header lookups are lowercased by the parsers
	existing := make(map[string]bool)
	if items, err := h.repo.ListItems(c.Request.Context()); err == nil {
		for _, item := range items {
			existing[item.ProductID] = true
		}
	}

	items := make([]*models.InventoryItem, 0, len(rows))
	seenInFile := make(map[string]bool, len(rows))
	today := models.NewDate(h.now())

	for _, row := range rows {
		rowNum, _ := strconv.Atoi(row["_row"])
		rowErrors := make([]ImportRowError, 0)

		for _, colName := range []string{"productid", "productname", "batchnumber", "expirydate", "quantity", "price"} {
			if row[colName] == "" {
				rowErrors = append(rowErrors, ImportRowError{
					Row:     rowNum,
					Column:  colName,
					Code:    "REQUIRED_FIELD",
					Message: fmt.Sprintf("Required field '%s' is empty", colName),
				})
			}
		}

		item := &models.InventoryItem{
			ProductID:   row["productid"],
			ProductName: row["productname"],
			BatchNumber: row["batchnumber"],
			Category:    row["category"],
			Location:    row["location"],
			Notes:       row["notes"],
			DateAdded:   today,
		}

		if row["expirydate"] != "" {
			expiry, err := models.ParseDate(row["expirydate"])
			if err != nil {
				rowErrors = append(rowErrors, ImportRowError{
					Row:     rowNum,
					Column:  "expiryDate",
					Code:    "INVALID_DATE",
					Message: fmt.Sprintf("Invalid expiry date '%s': expected YYYY-MM-DD", row["expirydate"]),
				})
			} else {
				item.ExpiryDate = expiry
			}
		}
		if row["quantity"] != "" {
			qty, err := strconv.Atoi(row["quantity"])
			if err != nil || qty < 0 {
				rowErrors = append(rowErrors, ImportRowError{
					Row:     rowNum,
					Column:  "quantity",
					Code:    "INVALID_NUMBER",
					Message: fmt.Sprintf("Invalid quantity '%s'", row["quantity"]),
				})
			} else {
				item.Quantity = qty
			}
		}
		if row["price"] != "" {
			price, err := strconv.ParseFloat(row["price"], 64)
			if err != nil || price < 0 {
				rowErrors = append(rowErrors, ImportRowError{
					Row:     rowNum,
					Column:  "price",
					Code:    "INVALID_NUMBER",
					Message: fmt.Sprintf("Invalid price '%s'", row["price"]),
				})
			} else {
				item.Price = price
			}
		}
		if row["shelflifedays"] != "" {
			if days, err := strconv.Atoi(row["shelflifedays"]); err == nil && days >= 0 {
				item.ShelfLifeDays = days
			}
		}

		if len(rowErrors) == 0 {
			if existing[item.ProductID] || seenInFile[item.ProductID] {
				if skipDuplicates {
					result.SkippedCount++
					continue
				}
				rowErrors = append(rowErrors, ImportRowError{
					Row:     rowNum,
					Column:  "productId",
					Code:    "DUPLICATE_PRODUCT_ID",
					Message: fmt.Sprintf("Product ID '%s' already exists", item.ProductID),
				})
			}
		}

		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			continue
		}

		seenInFile[item.ProductID] = true
		items = append(items, item)
	}

	if validateOnly {
		result.Success = len(result.Errors) == 0
		result.SuccessCount = len(items)
		result.FailedCount = result.TotalRows - len(items) - result.SkippedCount
		return result
	}

	for _, item := range items {
		if err := h.repo.CreateItem(c.Request.Context(), item); err != nil {
			code := "CREATION_FAILED"
			if errors.Is(err, repository.ErrDuplicateProductID) {
				code = "DUPLICATE_PRODUCT_ID"
				if skipDuplicates {
					result.SkippedCount++
					continue
				}
			}
			result.Errors = append(result.Errors, ImportRowError{
				Row:     0,
				Column:  "productId",
				Code:    code,
				Message: fmt.Sprintf("Failed to create item '%s': %s", item.ProductID, err.Error()),
			})
			continue
		}
		result.SuccessCount++
		result.CreatedIDs = append(result.CreatedIDs, item.ProductID)
	}

	result.FailedCount = result.TotalRows - result.SuccessCount - result.SkippedCount
	result.Success = result.SuccessCount > 0 && len(result.Errors) == 0
	return result
}
