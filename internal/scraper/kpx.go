package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jgoulah/kpxscraper/internal/config"
	"github.com/jgoulah/kpxscraper/internal/events"
	"github.com/jgoulah/kpxscraper/pkg/models"
)

// KPXScraper fetches production, consumption and price data from the Korea Power Exchange
type KPXScraper struct {
	zoneKey     string
	source      string
	currency    string
	location    *time.Location
	realtimeURL string
	priceURL    string
	longTermURL string
	sessionOpts SessionOptions
	now         func() time.Time
}

// Request carries the optional per-call parameters of a fetch.
// A nil Session or Logger is replaced by a fresh session or slog.Default for that call.
type Request struct {
	ZoneKey string
	Session *Session
	Target  *time.Time
	Logger  *slog.Logger
}

// NewKPXScraper creates a scraper from config
func NewKPXScraper(cfg *config.Config) (*KPXScraper, error) {
	loc, err := cfg.GetLocation()
	if err != nil {
		return nil, err
	}

	return &KPXScraper{
		zoneKey:     cfg.GetZoneKey(),
		source:      cfg.GetSource(),
		currency:    cfg.GetCurrency(),
		location:    loc,
		realtimeURL: cfg.GetRealtimeURL(),
		priceURL:    cfg.GetPriceURL(),
		longTermURL: cfg.GetLongTermURL(),
		sessionOpts: SessionOptions{
			Timeout:            cfg.GetHTTPTimeout(),
			InsecureSkipVerify: cfg.GetInsecureSkipVerify(),
		},
		now: time.Now,
	}, nil
}

// Location returns the operator timezone
func (s *KPXScraper) Location() *time.Location {
	return s.location
}

// NewSession creates a session configured like the ones this scraper creates per call
func (s *KPXScraper) NewSession() (*Session, error) {
	return NewSession(s.sessionOpts)
}

type resolved struct {
	zoneKey string
	session *Session
	logger  *slog.Logger
}

func (s *KPXScraper) resolve(req Request) (resolved, error) {
	r := resolved{
		zoneKey: req.ZoneKey,
		session: req.Session,
		logger:  req.Logger,
	}
	if r.zoneKey == "" {
		r.zoneKey = s.zoneKey
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.session == nil {
		sess, err := s.NewSession()
		if err != nil {
			return resolved{}, err
		}
		r.session = sess
	}
	return r, nil
}

// FetchProduction returns realtime production when no target is set,
// otherwise the historical daily table for the target date.
func (s *KPXScraper) FetchProduction(ctx context.Context, req Request) ([]models.ProductionBreakdown, error) {
	if req.Target != nil {
		earliest := productionHistoryStart(s.location)
		if req.Target.Before(earliest) {
			return nil, &UnsupportedRangeError{
				Operation: "production",
				Target:    *req.Target,
				Earliest:  earliest,
			}
		}
	}

	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	if req.Target == nil {
		return s.fetchRealtimeProduction(ctx, r)
	}
	return s.fetchLongTermProduction(ctx, r, *req.Target)
}

func (s *KPXScraper) fetchRealtimeProduction(ctx context.Context, r resolved) ([]models.ProductionBreakdown, error) {
	body, err := r.session.get(ctx, s.realtimeURL)
	if err != nil {
		return nil, fmt.Errorf("fetching realtime page: %w", err)
	}

	breakdowns, err := ExtractRealtimeProduction(body, r.zoneKey, s.source, s.location, r.logger)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("parsed realtime production", "zone", r.zoneKey, "records", breakdowns.Len())
	return breakdowns.ToList(), nil
}

// FetchConsumption returns the current total load. Past dates are not supported.
func (s *KPXScraper) FetchConsumption(ctx context.Context, req Request) ([]models.TotalConsumption, error) {
	if req.Target != nil {
		return nil, &UnsupportedOperationError{
			Operation: "consumption",
			Reason:    "past dates are not available",
		}
	}

	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	body, err := r.session.get(ctx, s.realtimeURL)
	if err != nil {
		return nil, fmt.Errorf("fetching realtime page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing realtime page: %w", err)
	}

	value, datetime, err := ExtractConsumption(doc, s.location)
	if err != nil {
		return nil, err
	}

	consumption := events.NewTotalConsumptionList(r.logger, s.location)
	if err := consumption.Append(r.zoneKey, datetime, s.source, value); err != nil {
		return nil, fmt.Errorf("appending consumption: %w", err)
	}

	return consumption.ToList(), nil
}
