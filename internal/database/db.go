package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jgoulah/kpxscraper/pkg/models"
)

// Record kinds stored by the database
const (
	KindProduction  = "production"
	KindConsumption = "consumption"
	KindPrice       = "price"
)

const timeLayout = time.RFC3339

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	loc  *time.Location
}

// New creates a new database connection and initializes the schema.
// Stored datetimes are returned in loc.
func New(dbPath string, loc *time.Location) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}

	db := &DB{conn: conn, loc: loc}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS production (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		zone_key TEXT NOT NULL,
		datetime TEXT NOT NULL,
		coal REAL,
		gas REAL,
		hydro REAL,
		nuclear REAL,
		oil REAL,
		unknown REAL,
		storage_hydro REAL,
		source TEXT NOT NULL,
		run_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		published INTEGER DEFAULT 0,
		UNIQUE(zone_key, datetime)
	);
	CREATE TABLE IF NOT EXISTS consumption (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		zone_key TEXT NOT NULL,
		datetime TEXT NOT NULL,
		consumption REAL NOT NULL,
		source TEXT NOT NULL,
		run_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		published INTEGER DEFAULT 0,
		UNIQUE(zone_key, datetime)
	);
	CREATE TABLE IF NOT EXISTS price (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		zone_key TEXT NOT NULL,
		datetime TEXT NOT NULL,
		currency TEXT NOT NULL,
		price REAL NOT NULL,
		source TEXT NOT NULL,
		run_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		published INTEGER DEFAULT 0,
		UNIQUE(zone_key, datetime)
	);
	CREATE INDEX IF NOT EXISTS idx_production_published ON production(published);
	CREATE INDEX IF NOT EXISTS idx_consumption_published ON consumption(published);
	CREATE INDEX IF NOT EXISTS idx_price_published ON price(published);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// NewRunID returns an identifier that tags every row written by one fetch
func NewRunID() string {
	return uuid.NewString()
}

func nullable(m map[string]float64, key string) sql.NullFloat64 {
	v, ok := m[key]
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func createdAt() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// InsertProduction inserts production records, ignoring duplicates. Returns rows inserted.
func (db *DB) InsertProduction(runID string, records []models.ProductionBreakdown) (int, error) {
	query := `
	INSERT OR IGNORE INTO production (zone_key, datetime, coal, gas, hydro, nuclear, oil, unknown, storage_hydro, source, run_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	inserted := 0
	for _, r := range records {
		res, err := db.conn.Exec(query,
			r.ZoneKey, r.Datetime.Format(timeLayout),
			nullable(r.Production, models.Coal),
			nullable(r.Production, models.Gas),
			nullable(r.Production, models.Hydro),
			nullable(r.Production, models.Nuclear),
			nullable(r.Production, models.Oil),
			nullable(r.Production, models.Unknown),
			nullable(r.Storage, models.Hydro),
			r.Source, runID, createdAt())
		if err != nil {
			return inserted, fmt.Errorf("inserting production: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	return inserted, nil
}

// InsertConsumption inserts consumption records, ignoring duplicates
func (db *DB) InsertConsumption(runID string, records []models.TotalConsumption) (int, error) {
	query := `
	INSERT OR IGNORE INTO consumption (zone_key, datetime, consumption, source, run_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	inserted := 0
	for _, r := range records {
		res, err := db.conn.Exec(query, r.ZoneKey, r.Datetime.Format(timeLayout), r.Consumption, r.Source, runID, createdAt())
		if err != nil {
			return inserted, fmt.Errorf("inserting consumption: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	return inserted, nil
}

// InsertPrices inserts price records, ignoring duplicates
func (db *DB) InsertPrices(runID string, records []models.Price) (int, error) {
	query := `
	INSERT OR IGNORE INTO price (zone_key, datetime, currency, price, source, run_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	inserted := 0
	for _, r := range records {
		res, err := db.conn.Exec(query, r.ZoneKey, r.Datetime.Format(timeLayout), r.Currency, r.Price, r.Source, runID, createdAt())
		if err != nil {
			return inserted, fmt.Errorf("inserting price: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	return inserted, nil
}

func (db *DB) parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing datetime: %w", err)
	}
	return t.In(db.loc), nil
}

func unpublishedClause(onlyUnpublished bool) string {
	if onlyUnpublished {
		return " AND published = 0"
	}
	return ""
}

// ListProduction retrieves production records for a zone, newest first
func (db *DB) ListProduction(zoneKey string, onlyUnpublished bool) ([]models.ProductionBreakdown, error) {
	query := `
	SELECT id, zone_key, datetime, coal, gas, hydro, nuclear, oil, unknown, storage_hydro, source
	FROM production
	WHERE zone_key = ?` + unpublishedClause(onlyUnpublished) + `
	ORDER BY datetime DESC
	`

	rows, err := db.conn.Query(query, zoneKey)
	if err != nil {
		return nil, fmt.Errorf("querying production: %w", err)
	}
	defer rows.Close()

	var results []models.ProductionBreakdown
	for rows.Next() {
		var (
			r                                           models.ProductionBreakdown
			datetime                                    string
			coal, gas, hydro, nuclear, oil, unk, stored sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.ZoneKey, &datetime, &coal, &gas, &hydro, &nuclear, &oil, &unk, &stored, &r.Source); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		r.Datetime, err = db.parseTime(datetime)
		if err != nil {
			return nil, err
		}

		r.Production = models.ProductionMix{}
		for category, v := range map[string]sql.NullFloat64{
			models.Coal: coal, models.Gas: gas, models.Hydro: hydro,
			models.Nuclear: nuclear, models.Oil: oil, models.Unknown: unk,
		} {
			if v.Valid {
				r.Production[category] = v.Float64
			}
		}
		if stored.Valid {
			r.Storage = models.StorageMix{models.Hydro: stored.Float64}
		}

		results = append(results, r)
	}

	return results, rows.Err()
}

// ListConsumption retrieves consumption records for a zone, newest first
func (db *DB) ListConsumption(zoneKey string, onlyUnpublished bool) ([]models.TotalConsumption, error) {
	query := `
	SELECT id, zone_key, datetime, consumption, source
	FROM consumption
	WHERE zone_key = ?` + unpublishedClause(onlyUnpublished) + `
	ORDER BY datetime DESC
	`

	rows, err := db.conn.Query(query, zoneKey)
	if err != nil {
		return nil, fmt.Errorf("querying consumption: %w", err)
	}
	defer rows.Close()

	var results []models.TotalConsumption
	for rows.Next() {
		var r models.TotalConsumption
		var datetime string
		if err := rows.Scan(&r.ID, &r.ZoneKey, &datetime, &r.Consumption, &r.Source); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		r.Datetime, err = db.parseTime(datetime)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// ListPrices retrieves price records for a zone, newest first
func (db *DB) ListPrices(zoneKey string, onlyUnpublished bool) ([]models.Price, error) {
	query := `
	SELECT id, zone_key, datetime, currency, price, source
	FROM price
	WHERE zone_key = ?` + unpublishedClause(onlyUnpublished) + `
	ORDER BY datetime DESC
	`

	rows, err := db.conn.Query(query, zoneKey)
	if err != nil {
		return nil, fmt.Errorf("querying prices: %w", err)
	}
	defer rows.Close()

	var results []models.Price
	for rows.Next() {
		var r models.Price
		var datetime string
		if err := rows.Scan(&r.ID, &r.ZoneKey, &datetime, &r.Currency, &r.Price, &r.Source); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		r.Datetime, err = db.parseTime(datetime)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// MarkPublished marks a record of the given kind as published
func (db *DB) MarkPublished(kind string, id int) error {
	var query string
	switch kind {
	case KindProduction:
		query = `UPDATE production SET published = 1 WHERE id = ?`
	case KindConsumption:
		query = `UPDATE consumption SET published = 1 WHERE id = ?`
	case KindPrice:
		query = `UPDATE price SET published = 1 WHERE id = ?`
	default:
		return fmt.Errorf("unknown record kind: %s", kind)
	}

	if _, err := db.conn.Exec(query, id); err != nil {
		return fmt.Errorf("marking record as published: %w", err)
	}
	return nil
}
