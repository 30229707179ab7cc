package scraper

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var errEmptyValue = errors.New("empty value")

// cleanNumber removes thousands separators and surrounding space
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	return s
}

// parseFloatCell parses a float such as "62,345"
func parseFloatCell(field, s string) (float64, error) {
	clean := cleanNumber(s)
	if clean == "" {
		return 0, &ParseError{Field: field, Value: s, Err: errEmptyValue}
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Value: s, Err: err}
	}
	return v, nil
}

// parseThousandsInt parses an integer such as "1,234" or "-1,234".
// A trailing "-" placeholder is dropped; a leading sign is kept.
func parseThousandsInt(field, s string) (int, error) {
	clean := cleanNumber(s)
	if len(clean) > 1 {
		clean = strings.TrimRight(clean, "-")
	}
	if clean == "" {
		return 0, &ParseError{Field: field, Value: s, Err: errEmptyValue}
	}

	v, err := strconv.Atoi(clean)
	if err != nil {
		return 0, &ParseError{Field: field, Value: s, Err: err}
	}
	return v, nil
}

// parseDecimalCell parses a table cell into an exact decimal
func parseDecimalCell(field, s string) (decimal.Decimal, error) {
	clean := cleanNumber(s)
	if clean == "" {
		return decimal.Zero, &ParseError{Field: field, Value: s, Err: errEmptyValue}
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, &ParseError{Field: field, Value: s, Err: err}
	}
	return d, nil
}

// timeFloor rounds t down to a multiple of d counted from epoch
func timeFloor(t time.Time, d time.Duration, epoch time.Time) time.Time {
	mod := t.Sub(epoch) % d
	if mod < 0 {
		mod += d
	}
	return t.Add(-mod)
}

// productionHistoryStart is the first day the long-term production table covers
func productionHistoryStart(loc *time.Location) time.Time {
	return time.Date(2021, 12, 22, 0, 0, 0, 0, loc)
}
