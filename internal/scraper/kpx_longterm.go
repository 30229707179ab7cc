package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jgoulah/kpxscraper/internal/events"
	"github.com/jgoulah/kpxscraper/pkg/models"
)

const csrfCookieName = "XSRF-TOKEN"

// fetchLongTermProduction posts the daily production form for target and parses the table
func (s *KPXScraper) fetchLongTermProduction(ctx context.Context, r resolved, target time.Time) ([]models.ProductionBreakdown, error) {
	day := target.In(s.location).Format("2006-01-02")

	// The form needs the CSRF token the site sets as a cookie
	if _, err := r.session.get(ctx, s.longTermURL); err != nil {
		return nil, fmt.Errorf("fetching long-term production page: %w", err)
	}

	token, ok := r.session.Cookie(s.longTermURL, csrfCookieName)
	if !ok {
		return nil, &ExtractionError{What: csrfCookieName + " cookie not set by long-term production page"}
	}

	form := map[string]string{
		"mid":        "a10606030000",
		"device":     "chart",
		"view_sdate": day,
		"view_edate": day,
		"_csrf":      token,
	}

	r.logger.Debug("requesting long-term production", "zone", r.zoneKey, "date", day)
	body, err := r.session.postForm(ctx, s.longTermURL, form)
	if err != nil {
		return nil, fmt.Errorf("posting long-term production form: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing long-term production page: %w", err)
	}

	breakdowns, err := ExtractLongTermProduction(doc, r.zoneKey, s.source, s.location, r.logger)
	if err != nil {
		return nil, err
	}

	return breakdowns.ToList(), nil
}

// ExtractLongTermProduction parses the daily production table.
//
// Column order after the date cell: other (signed, pumped storage), gas,
// renewable, coal, nuclear. Other and renewable both go into unknown.
// When pumping outweighs renewables the sum is negative, and the record
// list drops unknown for that hour with a warning; the other categories stay.
func ExtractLongTermProduction(doc *goquery.Document, zoneKey, source string, loc *time.Location, logger *slog.Logger) (*events.ProductionBreakdownList, error) {
	rows := doc.Find("tr")
	if rows.Length() == 0 {
		return nil, &ExtractionError{What: "long-term production table not found"}
	}

	breakdowns := events.NewProductionBreakdownList(logger, loc)

	var rowErr error
	rows.Slice(1, rows.Length()).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() < 6 {
			rowErr = &ExtractionError{What: fmt.Sprintf("long-term production row %d has %d cells, want 6", i+1, cells.Length())}
			return false
		}

		datetime, err := parseLongTermDatetime(cells.First().Text(), loc)
		if err != nil {
			rowErr = err
			return false
		}

		values := make([]int, 0, cells.Length()-1)
		cells.Slice(1, cells.Length()).EachWithBreak(func(_ int, td *goquery.Selection) bool {
			v, err := parseThousandsInt("production", td.Text())
			if err != nil {
				rowErr = err
				return false
			}
			values = append(values, v)
			return true
		})
		if rowErr != nil {
			return false
		}

		production := models.ProductionMix{
			models.Unknown: float64(values[0] + values[2]),
			models.Gas:     float64(values[1]),
			models.Coal:    float64(values[3]),
			models.Nuclear: float64(values[4]),
		}

		if err := breakdowns.Append(zoneKey, datetime, source, production, nil); err != nil {
			rowErr = fmt.Errorf("appending production for %s: %w", datetime.Format(time.RFC3339), err)
			return false
		}
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return breakdowns, nil
}

// parseLongTermDatetime parses "2022년 02월 07일 16시 35분": every token ends with a unit character
func parseLongTermDatetime(text string, loc *time.Location) (time.Time, error) {
	tokens := strings.Fields(text)
	if len(tokens) < 4 {
		return time.Time{}, &ParseError{Field: "long-term datetime", Value: text, Err: fmt.Errorf("want at least 4 tokens, got %d", len(tokens))}
	}

	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		_, size := utf8.DecodeLastRuneInString(tok)
		parts[i] = tok[:len(tok)-size]
	}

	// Hours run 01..24; 24시 00분 is midnight at the end of the day
	endOfDay := parts[3] == "24" && len(parts) == 5 && parts[4] == "00"
	if endOfDay {
		parts[3] = "00"
	}

	value := strings.Join(parts[:3], "-") + "T" + strings.Join(parts[3:], ":") + ":00"
	datetime, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc)
	if err != nil {
		return time.Time{}, &ParseError{Field: "long-term datetime", Value: text, Err: err}
	}
	if endOfDay {
		datetime = datetime.AddDate(0, 0, 1)
	}
	return datetime, nil
}
