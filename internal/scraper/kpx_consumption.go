package scraper

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// "현재부하" is the current load header on the realtime page
var consumptionLabel = regexp.MustCompile(`\s*현재부하\s*`)

// ExtractConsumption reads the current load (MW) and the page timestamp from the realtime page
func ExtractConsumption(doc *goquery.Document, loc *time.Location) (float64, time.Time, error) {
	title := doc.Find("th").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return consumptionLabel.MatchString(s.Text())
	}).First()
	if title.Length() == 0 {
		return 0, time.Time{}, &ExtractionError{What: "current load header not found"}
	}

	fields := strings.Fields(title.Next().Text())
	if len(fields) == 0 {
		return 0, time.Time{}, &ExtractionError{What: "current load value cell is empty"}
	}

	value, err := parseFloatCell("consumption", fields[0])
	if err != nil {
		return 0, time.Time{}, err
	}

	info := doc.Find("p.info_top").First()
	if info.Length() == 0 {
		return 0, time.Time{}, &ExtractionError{What: "page timestamp paragraph not found"}
	}

	datetime, err := parseInfoTimestamp(info.Text(), loc)
	if err != nil {
		return 0, time.Time{}, err
	}

	return value, datetime, nil
}

// parseInfoTimestamp parses text like "2022.02.07(월) 16:35 기준"
func parseInfoTimestamp(text string, loc *time.Location) (time.Time, error) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return time.Time{}, &ExtractionError{What: "page timestamp has fewer than two tokens: " + text}
	}

	day := strings.ReplaceAll(parts[0], ".", "-")
	day, _, _ = strings.Cut(day, "(")

	value := day + " " + parts[1]
	datetime, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	if err != nil {
		return time.Time{}, &ParseError{Field: "page timestamp", Value: value, Err: err}
	}
	return datetime, nil
}
