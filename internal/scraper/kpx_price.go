package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/jgoulah/kpxscraper/internal/events"
	"github.com/jgoulah/kpxscraper/pkg/models"
)

const hoursPerDay = 24

var kwhPerMWh = decimal.NewFromInt(1000)

// priceCell is one hour of one day in the price table
type priceCell struct {
	row   int // 0-based, row 23 is hour "24"
	col   int // 1-based day column, most recent last
	value decimal.Decimal
}

// FetchPrice returns hourly system marginal prices for the operator's rolling week
func (s *KPXScraper) FetchPrice(ctx context.Context, req Request) ([]models.Price, error) {
	now := s.now().In(s.location)

	earliest := firstAvailablePrice(now)
	if req.Target != nil && req.Target.Before(earliest) {
		return nil, &UnsupportedRangeError{
			Operation: "price",
			Target:    *req.Target,
			Earliest:  earliest,
		}
	}

	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	body, err := r.session.get(ctx, s.priceURL)
	if err != nil {
		return nil, fmt.Errorf("fetching price page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing price page: %w", err)
	}

	prices, err := ExtractPrices(doc, now, r.zoneKey, s.source, s.currency, r.logger)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("parsed prices", "zone", r.zoneKey, "records", prices.Len())
	return prices.ToList(), nil
}

// firstAvailablePrice is the start of the day six days ago plus one hour
func firstAvailablePrice(now time.Time) time.Time {
	loc := now.Location()
	epoch := time.Date(1970, 1, 1, 0, 0, 0, 0, loc)
	return timeFloor(now.AddDate(0, 0, -6), 24*time.Hour, epoch).Add(time.Hour)
}

// ExtractPrices converts the first table of the price page into hourly records.
// Day columns count back from now: the last column is today.
func ExtractPrices(doc *goquery.Document, now time.Time, zoneKey, source, currency string, logger *slog.Logger) (*events.PriceList, error) {
	cells, dayColumns, err := parsePriceTable(doc)
	if err != nil {
		return nil, err
	}

	loc := now.Location()
	prices := events.NewPriceList(logger, loc)
	for _, cell := range cells {
		datetime := priceDatetime(now, dayColumns, cell.col, cell.row)

		value, _ := cell.value.Mul(kwhPerMWh).Float64()
		if err := prices.Append(zoneKey, datetime, source, currency, value); err != nil {
			return nil, fmt.Errorf("appending price for %s: %w", datetime.Format(time.RFC3339), err)
		}
	}

	return prices, nil
}

// priceDatetime maps a grid position to its hour. Hour slot 24 is hour 0 of the next day.
func priceDatetime(now time.Time, dayColumns, col, row int) time.Time {
	daysBack := dayColumns - col
	hour := row + 1
	if hour == hoursPerDay {
		hour = 0
		daysBack--
	}

	day := now.AddDate(0, 0, -daysBack)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, now.Location())
}

// parsePriceTable reads the first table: header row, then 24 hour rows whose
// first cell is the hour label and remaining cells are one value per day.
func parsePriceTable(doc *goquery.Document) ([]priceCell, int, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, 0, &ExtractionError{What: "price table not found"}
	}

	rows := table.Find("tr")
	if rows.Length() < hoursPerDay+1 {
		return nil, 0, &ExtractionError{What: fmt.Sprintf("price table has %d rows, want header plus %d", rows.Length(), hoursPerDay)}
	}

	var (
		cells      []priceCell
		dayColumns int
		parseErr   error
	)
	rows.Slice(1, hoursPerDay+1).EachWithBreak(func(row int, tr *goquery.Selection) bool {
		tds := tr.ChildrenFiltered("th, td")
		if row == 0 {
			dayColumns = tds.Length() - 1
			if dayColumns < 1 {
				parseErr = &ExtractionError{What: "price table has no day columns"}
				return false
			}
		}
		if tds.Length()-1 != dayColumns {
			parseErr = &ExtractionError{What: fmt.Sprintf("price table row %d has %d day columns, want %d", row+1, tds.Length()-1, dayColumns)}
			return false
		}

		tds.Slice(1, tds.Length()).EachWithBreak(func(i int, td *goquery.Selection) bool {
			text := strings.TrimSpace(td.Text())
			// unpublished hours are left blank
			if text == "" || text == "-" {
				return true
			}

			value, err := parseDecimalCell("price", text)
			if err != nil {
				parseErr = err
				return false
			}
			cells = append(cells, priceCell{row: row, col: i + 1, value: value})
			return true
		})
		return parseErr == nil
	})
	if parseErr != nil {
		return nil, 0, parseErr
	}

	return cells, dayColumns, nil
}
