package reports

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"expiry-tracker/internal/models"
)

// Tabular projections for export. Field order and set are fixed per export
// type; the inventory export carries raw fields only, the report export
// adds the computed columns, and the summary export is a fixed key/value
// table. Money is formatted to two decimals at this boundary.

// InventoryHeader is the column order of the raw inventory export.
var InventoryHeader = []string{
	"productId", "productName", "batchNumber", "category", "location",
	"expiryDate", "dateAdded", "quantity", "price", "shelfLifeDays", "notes",
}

// ReportHeader is the column order of the report export.
var ReportHeader = []string{
	"productName", "productId", "batchNumber", "category", "quantity",
	"expiryDate", "daysUntilExpiry", "status", "discountPercent",
	"price", "lineTotalOriginal", "lineTotalDiscounted", "potentialLoss",
}

// ToInventoryRows projects raw items into export rows, header first.
// Computed fields (status, discount) are deliberately omitted: they are a
// view over the current date and config, not part of the stored record.
func ToInventoryRows(items []models.InventoryItem) [][]string {
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, InventoryHeader)
	for _, item := range items {
		rows = append(rows, []string{
			item.ProductID,
			item.ProductName,
			item.BatchNumber,
			item.Category,
			item.Location,
			item.ExpiryDate.String(),
			item.DateAdded.String(),
			strconv.Itoa(item.Quantity),
			money(item.Price),
			strconv.Itoa(item.ShelfLifeDays),
			item.Notes,
		})
	}
	return rows
}

// ToReportRows projects enriched items into export rows, header first.
func ToReportRows(items []models.EnrichedItem) [][]string {
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, ReportHeader)
	for _, item := range items {
		rows = append(rows, []string{
			item.ProductName,
			item.ProductID,
			item.BatchNumber,
			item.Category,
			strconv.Itoa(item.Quantity),
			item.ExpiryDate.String(),
			strconv.Itoa(item.DaysUntilExpiry),
			string(item.Status),
			strconv.Itoa(item.DiscountPercent),
			money(item.Price),
			money(item.LineTotalOriginal),
			money(item.LineTotalDiscounted),
			money(item.PotentialLoss),
		})
	}
	return rows
}

// ToSummaryRows emits the fixed four-row key/value summary table.
func ToSummaryRows(stats models.Stats) [][]string {
	return [][]string{
		{"metric", "value"},
		{"Total Items", strconv.Itoa(stats.TotalItems)},
		{"Total Value", money(stats.TotalValue)},
		{"Expired Items", strconv.Itoa(stats.Expired)},
		{"Critical Items", strconv.Itoa(stats.Critical)},
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteCSV renders rows with every field quoted. encoding/csv only quotes
// fields that need it, and the export format quotes unconditionally, so
// quoting is done here per RFC 4180 (internal quotes doubled).
func WriteCSV(w io.Writer, rows [][]string) error {
	for _, row := range rows {
		quoted := make([]string, len(row))
		for i, field := range row {
			quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		if _, err := fmt.Fprintf(w, "%s\r\n", strings.Join(quoted, ",")); err != nil {
			return err
		}
	}
	return nil
}
