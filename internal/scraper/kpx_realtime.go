package scraper

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/jgoulah/kpxscraper/internal/events"
	"github.com/jgoulah/kpxscraper/pkg/models"
)

var ictArrPattern = regexp.MustCompile(`var ictArr = (\[\{.+\}\]);`)

// scriptArrayKeys are the only bare object keys accepted in the ictArr literal
var scriptArrayKeys = map[string]bool{
	"localCoal":    true,
	"newRenewable": true,
	"oil":          true,
	"once":         true,
	"gas":          true,
	"nuclearPower": true,
	"coal":         true,
	"regDate":      true,
	"raisingWater": true,
	"waterPower":   true,
	"seq":          true,
}

// padding slots after the latest sample carry this date
const emptySlotDate = "0"

// ExtractRealtimeProduction parses the generation chart data embedded in the realtime info page
func ExtractRealtimeProduction(page, zoneKey, source string, loc *time.Location, logger *slog.Logger) (*events.ProductionBreakdownList, error) {
	match := ictArrPattern.FindStringSubmatch(page)
	if match == nil {
		return nil, &ExtractionError{What: "ictArr array not found in realtime page"}
	}

	normalized, err := normalizeScriptArray(match[1])
	if err != nil {
		return nil, err
	}

	var samples []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(normalized), &samples); err != nil {
		return nil, &ExtractionError{What: "decoding ictArr", Err: err}
	}

	breakdowns := events.NewProductionBreakdownList(logger, loc)
	for _, sample := range samples {
		regDate, err := sampleString(sample, "regDate")
		if err != nil {
			return nil, err
		}
		if regDate == emptySlotDate {
			break
		}

		datetime, err := time.ParseInLocation("2006-01-02 15:04", regDate, loc)
		if err != nil {
			return nil, &ParseError{Field: "regDate", Value: regDate, Err: err}
		}

		values := make(map[string]float64, 7)
		for _, field := range []string{"coal", "localCoal", "gas", "waterPower", "nuclearPower", "oil", "newRenewable", "raisingWater"} {
			v, err := sampleNumber(sample, field)
			if err != nil {
				return nil, err
			}
			values[field] = v
		}

		production := models.ProductionMix{
			models.Coal:    values["coal"] + values["localCoal"],
			models.Gas:     values["gas"],
			models.Hydro:   values["waterPower"],
			models.Nuclear: values["nuclearPower"],
			models.Oil:     values["oil"],
			models.Unknown: values["newRenewable"],
		}
		storage := models.StorageMix{
			models.Hydro: -values["raisingWater"],
		}

		if err := breakdowns.Append(zoneKey, datetime, source, production, storage); err != nil {
			return nil, fmt.Errorf("appending production for %s: %w", regDate, err)
		}
	}

	return breakdowns, nil
}

// normalizeScriptArray turns a JavaScript array literal with bare object keys
// into JSON. Only keys in scriptArrayKeys are quoted; any other bare key is an error.
func normalizeScriptArray(src string) (string, error) {
	var b strings.Builder
	b.Grow(len(src) + len(src)/4)

	expectKey := false
	for i := 0; i < len(src); {
		ch := src[i]
		switch {
		case ch == '"':
			end, err := stringLiteralEnd(src, i)
			if err != nil {
				return "", err
			}
			b.WriteString(src[i:end])
			i = end
			expectKey = false
		case ch == '{' || ch == ',':
			b.WriteByte(ch)
			i++
			expectKey = true
		case isScriptSpace(ch):
			b.WriteByte(ch)
			i++
		case expectKey && isIdentStart(ch):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			name := src[i:j]

			k := j
			for k < len(src) && isScriptSpace(src[k]) {
				k++
			}
			if k < len(src) && src[k] == ':' {
				if !scriptArrayKeys[name] {
					return "", &ExtractionError{What: fmt.Sprintf("unsupported key %q in ictArr", name)}
				}
				b.WriteByte('"')
				b.WriteString(name)
				b.WriteByte('"')
			} else {
				// a bare value such as true or null
				b.WriteString(name)
			}
			i = j
			expectKey = false
		default:
			b.WriteByte(ch)
			i++
			expectKey = false
		}
	}

	return b.String(), nil
}

// stringLiteralEnd returns the index just past the closing quote of the string starting at start
func stringLiteralEnd(src string, start int) (int, error) {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '"':
			return i + 1, nil
		}
	}
	return 0, &ExtractionError{What: "unterminated string in ictArr"}
}

func isScriptSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func sampleString(sample map[string]json.RawMessage, field string) (string, error) {
	raw, ok := sample[field]
	if !ok {
		return "", &ExtractionError{What: fmt.Sprintf("field %s missing from ictArr sample", field)}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &ParseError{Field: field, Value: string(raw), Err: err}
	}
	return s, nil
}

// sampleNumber reads a field that may be a JSON number or a numeric string
func sampleNumber(sample map[string]json.RawMessage, field string) (float64, error) {
	raw, ok := sample[field]
	if !ok {
		return 0, &ExtractionError{What: fmt.Sprintf("field %s missing from ictArr sample", field)}
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		v, err := n.Float64()
		if err != nil {
			return 0, &ParseError{Field: field, Value: n.String(), Err: err}
		}
		return v, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, &ParseError{Field: field, Value: string(raw), Err: err}
	}
	return parseFloatCell(field, s)
}
