package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jgoulah/kpxscraper/pkg/models"
)

func readRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestProduction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "production.xlsx")
	loc := time.FixedZone("KST", 9*60*60)

	err := Production(path, []models.ProductionBreakdown{{
		ZoneKey:    "KR",
		Datetime:   time.Date(2022, 2, 7, 16, 0, 0, 0, loc),
		Production: models.ProductionMix{models.Coal: 20600.5, models.Nuclear: 22000},
		Storage:    models.StorageMix{models.Hydro: -400},
		Source:     "new.kpx.or.kr",
	}})
	require.NoError(t, err)

	rows := readRows(t, path, "production")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"zone_key", "datetime", "coal", "gas", "hydro", "nuclear", "oil", "unknown", "storage_hydro", "source"}, rows[0])
	assert.Equal(t, "KR", rows[1][0])
	assert.Equal(t, "2022-02-07 16:00", rows[1][1])
	assert.Equal(t, "20600.5", rows[1][2])
	assert.Equal(t, "", rows[1][3])
	assert.Equal(t, "22000", rows[1][5])
	assert.Equal(t, "-400", rows[1][8])
	assert.Equal(t, "new.kpx.or.kr", rows[1][9])
}

func TestPrices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price.xlsx")
	loc := time.FixedZone("KST", 9*60*60)

	err := Prices(path, []models.Price{
		{ZoneKey: "KR", Datetime: time.Date(2022, 2, 7, 1, 0, 0, 0, loc), Currency: "KRW", Price: 152340, Source: "src"},
		{ZoneKey: "KR", Datetime: time.Date(2022, 2, 7, 2, 0, 0, 0, loc), Currency: "KRW", Price: 85, Source: "src"},
	})
	require.NoError(t, err)

	rows := readRows(t, path, "price")
	require.Len(t, rows, 3)
	assert.Equal(t, "price_per_mwh", rows[0][3])
	assert.Equal(t, "152340", rows[1][3])
	assert.Equal(t, "85", rows[2][3])
}

func TestConsumption_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consumption.xlsx")

	require.NoError(t, Consumption(path, nil))

	rows := readRows(t, path, "consumption")
	require.Len(t, rows, 1)
	assert.Equal(t, "consumption_mw", rows[0][2])
}
