package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/alsace-van/catalog-import/internal"
)

// ExportRowsToXLSX writes an import review sheet: one row per
// reconciled product with the match outcome and price drift alongside
// the extracted fields.
func ExportRowsToXLSX(rows []internal.ImportRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"row", "source", "reference", "name", "description", "brand", "supplier",
		"purchase_price", "sell_price_ttc", "weight_kg", "dimensions",
		"status", "matched_entry_id", "old_purchase_price", "old_sell_price", "price_changed", "selected",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		status := "new"
		if row.IsUpdate {
			status = "update"
		}

		set(1, row.RowIndex)
		set(2, row.Source)
		set(3, row.Reference)
		set(4, row.Name)
		set(5, row.Description)
		set(6, row.Brand)
		set(7, row.Supplier)
		set(8, derefFloat(row.PurchasePrice))
		set(9, derefFloat(row.SellPriceIncTax))
		set(10, derefFloat(row.WeightKg))
		set(11, row.DimensionsText)
		set(12, status)
		set(13, derefString(row.MatchedEntryID))
		set(14, derefFloat(row.OldPurchasePrice))
		set(15, derefFloat(row.OldSellPrice))
		set(16, row.PriceChanged)
		set(17, row.Selected)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
