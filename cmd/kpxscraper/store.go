package main

import (
	"fmt"

	"github.com/jgoulah/kpxscraper/internal/database"
	"github.com/jgoulah/kpxscraper/pkg/models"
)

// storeRecords inserts a fetched record slice, returning how many rows were new
func storeRecords(db *database.DB, runID string, records any) (int, error) {
	var (
		n   int
		err error
	)
	switch r := records.(type) {
	case []models.ProductionBreakdown:
		n, err = db.InsertProduction(runID, r)
	case []models.TotalConsumption:
		n, err = db.InsertConsumption(runID, r)
	case []models.Price:
		n, err = db.InsertPrices(runID, r)
	default:
		return 0, fmt.Errorf("unsupported record type %T", records)
	}
	if err != nil {
		return n, fmt.Errorf("storing records: %w", err)
	}
	return n, nil
}
