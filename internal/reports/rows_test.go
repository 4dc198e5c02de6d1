package reports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"expiry-tracker/internal/models"
	"expiry-tracker/internal/pricing"
)

func TestToInventoryRowsOmitsComputedFields(t *testing.T) {
	items := []models.InventoryItem{item("PRD-001", 2, 3.5, 4)}

	rows := ToInventoryRows(items)

	assert.Len(t, rows, 2)
	assert.Equal(t, InventoryHeader, rows[0])
	for _, col := range rows[0] {
		assert.NotEqual(t, "status", col)
		assert.NotEqual(t, "discountPercent", col)
	}

	row := rows[1]
	assert.Equal(t, "PRD-001", row[0])
	assert.Equal(t, "4", row[7])
	assert.Equal(t, "3.50", row[8])
}

func TestToReportRowsIncludesComputedFields(t *testing.T) {
	enriched := pricing.EnrichAll([]models.InventoryItem{item("CRI", 2, 100, 10)}, models.DefaultThresholds(), today)

	rows := ToReportRows(enriched)

	assert.Len(t, rows, 2)
	assert.Equal(t, ReportHeader, rows[0])

	row := rows[1]
	assert.Equal(t, "2", row[6])        // daysUntilExpiry
	assert.Equal(t, "CRITICAL", row[7]) // status
	assert.Equal(t, "50", row[8])       // discountPercent
	assert.Equal(t, "1000.00", row[10]) // lineTotalOriginal
	assert.Equal(t, "500.00", row[11])  // lineTotalDiscounted
	assert.Equal(t, "500.00", row[12])  // potentialLoss
}

func TestToSummaryRowsFixedShape(t *testing.T) {
	stats := models.Stats{TotalItems: 7, TotalValue: 123.456, Expired: 2, Critical: 3}

	rows := ToSummaryRows(stats)

	assert.Equal(t, [][]string{
		{"metric", "value"},
		{"Total Items", "7"},
		{"Total Value", "123.46"},
		{"Expired Items", "2"},
		{"Critical Items", "3"},
	}, rows)
}

func TestWriteCSVQuotesEveryField(t *testing.T) {
	var sb strings.Builder
	err := WriteCSV(&sb, [][]string{
		{"productId", "notes"},
		{"PRD-001", `say "hi", ok`},
	})

	assert.NoError(t, err)
	assert.Equal(t, "\"productId\",\"notes\"\r\n\"PRD-001\",\"say \"\"hi\"\", ok\"\r\n", sb.String())
}

func TestWriteCSVEmptyFieldStillQuoted(t *testing.T) {
	var sb strings.Builder
	assert.NoError(t, WriteCSV(&sb, [][]string{{"", "x"}}))
	assert.Equal(t, "\"\",\"x\"\r\n", sb.String())
}
