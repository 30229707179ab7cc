// Package events collects parsed records before they are returned to callers.
//
// Each list enforces the same rules: timestamps must be set and carry the
// operator location, and a zone key may only hold one record per datetime.
package events

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jgoulah/kpxscraper/pkg/models"
)

type eventKey struct {
	zoneKey  string
	datetime int64
}

// base holds the validation shared by all lists
type base struct {
	logger   *slog.Logger
	location *time.Location
	seen     map[eventKey]struct{}
}

func newBase(logger *slog.Logger, loc *time.Location) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{
		logger:   logger,
		location: loc,
		seen:     make(map[eventKey]struct{}),
	}
}

func (b *base) check(zoneKey string, datetime time.Time) error {
	if zoneKey == "" {
		return fmt.Errorf("zone key is required")
	}
	if datetime.IsZero() {
		return fmt.Errorf("datetime is required for %s", zoneKey)
	}
	if b.location != nil && datetime.Location().String() != b.location.String() {
		return fmt.Errorf("datetime %s for %s is not localized to %s", datetime.Format(time.RFC3339), zoneKey, b.location)
	}

	key := eventKey{zoneKey: zoneKey, datetime: datetime.Unix()}
	if _, ok := b.seen[key]; ok {
		return fmt.Errorf("duplicate datetime %s for %s", datetime.Format(time.RFC3339), zoneKey)
	}
	b.seen[key] = struct{}{}
	return nil
}

// ProductionBreakdownList accumulates production records
type ProductionBreakdownList struct {
	base
	events []models.ProductionBreakdown
}

// NewProductionBreakdownList creates an empty list. loc may be nil to skip the location check.
func NewProductionBreakdownList(logger *slog.Logger, loc *time.Location) *ProductionBreakdownList {
	return &ProductionBreakdownList{base: newBase(logger, loc)}
}

// Append validates and adds a production record. Negative production values are dropped.
func (l *ProductionBreakdownList) Append(zoneKey string, datetime time.Time, source string, production models.ProductionMix, storage models.StorageMix) error {
	if err := l.check(zoneKey, datetime); err != nil {
		return err
	}

	mix := make(models.ProductionMix, len(production))
	for category, value := range production {
		if value < 0 {
			l.logger.Warn("dropping negative production value",
				"zone", zoneKey,
				"datetime", datetime,
				"category", category,
				"value", value)
			continue
		}
		mix[category] = value
	}

	var stored models.StorageMix
	if len(storage) > 0 {
		stored = make(models.StorageMix, len(storage))
		for category, value := range storage {
			stored[category] = value
		}
	}

	l.events = append(l.events, models.ProductionBreakdown{
		ZoneKey:    zoneKey,
		Datetime:   datetime,
		Production: mix,
		Storage:    stored,
		Source:     source,
	})
	return nil
}

// Len returns the number of records
func (l *ProductionBreakdownList) Len() int {
	return len(l.events)
}

// ToList returns the records ordered by datetime
func (l *ProductionBreakdownList) ToList() []models.ProductionBreakdown {
	out := make([]models.ProductionBreakdown, len(l.events))
	copy(out, l.events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Datetime.Before(out[j].Datetime)
	})
	return out
}

// TotalConsumptionList accumulates consumption records
type TotalConsumptionList struct {
	base
	events []models.TotalConsumption
}

// NewTotalConsumptionList creates an empty list
func NewTotalConsumptionList(logger *slog.Logger, loc *time.Location) *TotalConsumptionList {
	return &TotalConsumptionList{base: newBase(logger, loc)}
}

// Append validates and adds a consumption record
func (l *TotalConsumptionList) Append(zoneKey string, datetime time.Time, source string, consumption float64) error {
	if consumption < 0 {
		return fmt.Errorf("negative consumption %.2f for %s", consumption, zoneKey)
	}
	if err := l.check(zoneKey, datetime); err != nil {
		return err
	}

	l.events = append(l.events, models.TotalConsumption{
		ZoneKey:     zoneKey,
		Datetime:    datetime,
		Consumption: consumption,
		Source:      source,
	})
	return nil
}

// Len returns the number of records
func (l *TotalConsumptionList) Len() int {
	return len(l.events)
}

// ToList returns the records ordered by datetime
func (l *TotalConsumptionList) ToList() []models.TotalConsumption {
	out := make([]models.TotalConsumption, len(l.events))
	copy(out, l.events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Datetime.Before(out[j].Datetime)
	})
	return out
}

// PriceList accumulates price records
type PriceList struct {
	base
	events []models.Price
}

// NewPriceList creates an empty list
func NewPriceList(logger *slog.Logger, loc *time.Location) *PriceList {
	return &PriceList{base: newBase(logger, loc)}
}

// Append validates and adds a price record
func (l *PriceList) Append(zoneKey string, datetime time.Time, source, currency string, price float64) error {
	if currency == "" {
		return fmt.Errorf("currency is required for %s", zoneKey)
	}
	if err := l.check(zoneKey, datetime); err != nil {
		return err
	}

	l.events = append(l.events, models.Price{
		ZoneKey:  zoneKey,
		Datetime: datetime,
		Currency: currency,
		Price:    price,
		Source:   source,
	})
	return nil
}

// Len returns the number of records
func (l *PriceList) Len() int {
	return len(l.events)
}

// ToList returns the records ordered by datetime
func (l *PriceList) ToList() []models.Price {
	out := make([]models.Price, len(l.events))
	copy(out, l.events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Datetime.Before(out[j].Datetime)
	})
	return out
}
