// Package export writes stored records to spreadsheets.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jgoulah/kpxscraper/pkg/models"
)

const datetimeLayout = "2006-01-02 15:04"

// Production writes production records, one column per category
func Production(path string, records []models.ProductionBreakdown) error {
	header := []interface{}{"zone_key", "datetime"}
	for _, c := range models.Categories {
		header = append(header, c)
	}
	header = append(header, "storage_hydro", "source")

	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		row := []interface{}{r.ZoneKey, r.Datetime.Format(datetimeLayout)}
		for _, c := range models.Categories {
			row = append(row, optional(r.Production, c))
		}
		row = append(row, optional(r.Storage, models.Hydro), r.Source)
		rows = append(rows, row)
	}

	return writeSheet(path, "production", header, rows)
}

// Consumption writes consumption records
func Consumption(path string, records []models.TotalConsumption) error {
	header := []interface{}{"zone_key", "datetime", "consumption_mw", "source"}

	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{r.ZoneKey, r.Datetime.Format(datetimeLayout), r.Consumption, r.Source})
	}

	return writeSheet(path, "consumption", header, rows)
}

// Prices writes price records
func Prices(path string, records []models.Price) error {
	header := []interface{}{"zone_key", "datetime", "currency", "price_per_mwh", "source"}

	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{r.ZoneKey, r.Datetime.Format(datetimeLayout), r.Currency, r.Price, r.Source})
	}

	return writeSheet(path, "price", header, rows)
}

// optional leaves the cell empty when the category is absent
func optional(m map[string]float64, key string) interface{} {
	if v, ok := m[key]; ok {
		return v
	}
	return nil
}

func writeSheet(path, sheet string, header []interface{}, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Creator: "kpxscraper",
		Created: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("setting properties: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
