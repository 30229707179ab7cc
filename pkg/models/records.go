package models

import "time"

// Production categories used by the operator data
const (
	Coal    = "coal"
	Gas     = "gas"
	Hydro   = "hydro"
	Nuclear = "nuclear"
	Oil     = "oil"
	Unknown = "unknown"
)

// Categories lists the production categories in display order
var Categories = []string{Coal, Gas, Hydro, Nuclear, Oil, Unknown}

// ProductionMix maps a production category to megawatts
type ProductionMix map[string]float64

// StorageMix maps a storage category to signed megawatts (negative = charging)
type StorageMix map[string]float64

// ProductionBreakdown is one production sample for a zone
type ProductionBreakdown struct {
	ID         int           `json:"-"`
	ZoneKey    string        `json:"zoneKey"`
	Datetime   time.Time     `json:"datetime"`
	Production ProductionMix `json:"production"`
	Storage    StorageMix    `json:"storage,omitempty"`
	Source     string        `json:"source"`
}

// TotalConsumption is the total load of a zone at a point in time
type TotalConsumption struct {
	ID          int       `json:"-"`
	ZoneKey     string    `json:"zoneKey"`
	Datetime    time.Time `json:"datetime"`
	Consumption float64   `json:"consumption"`
	Source      string    `json:"source"`
}

// Price is a day-ahead/system marginal price for one hour
type Price struct {
	ID       int       `json:"-"`
	ZoneKey  string    `json:"zoneKey"`
	Datetime time.Time `json:"datetime"`
	Currency string    `json:"currency"`
	Price    float64   `json:"price"` // currency per MWh
	Source   string    `json:"source"`
}
