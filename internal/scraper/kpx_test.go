package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/kpxscraper/internal/config"
	"github.com/jgoulah/kpxscraper/pkg/models"
)

type fakeKPX struct {
	t        *testing.T
	requests atomic.Int32
	status   int
	price    string
}

func (f *fakeKPX) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	if f.status != 0 {
		w.WriteHeader(f.status)
		w.Write([]byte("unavailable"))
		return
	}

	switch r.URL.Path {
	case "/powerinfoSubmain.es":
		w.Write([]byte(readFixture(f.t, "realtime.html")))
	case "/smpInland.es":
		w.Write([]byte(f.price))
	case "/powerSource.es":
		if r.Method == http.MethodGet {
			http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "token-123", Path: "/"})
			w.Write([]byte("<html><body>form</body></html>"))
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("_csrf") != "token-123" ||
			r.PostForm.Get("view_sdate") != "2022-02-07" ||
			r.PostForm.Get("view_edate") != "2022-02-07" ||
			r.PostForm.Get("mid") != "a10606030000" ||
			r.PostForm.Get("device") != "chart" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(readFixture(f.t, "longterm.html")))
	default:
		http.NotFound(w, r)
	}
}

func newTestScraper(t *testing.T, fake *fakeKPX) *KPXScraper {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		URLs: config.URLConfig{
			Realtime: srv.URL + "/powerinfoSubmain.es?mid=a10606030000",
			Price:    srv.URL + "/smpInland.es?mid=a10606080100&device=pc",
			LongTerm: srv.URL + "/powerSource.es?mid=a10606030000&device=chart",
		},
	}
	s, err := NewKPXScraper(cfg)
	require.NoError(t, err)

	now := time.Date(2022, 2, 7, 16, 35, 0, 0, s.Location())
	s.now = func() time.Time { return now }
	return s
}

func TestFetchProduction_Realtime(t *testing.T) {
	s := newTestScraper(t, &fakeKPX{t: t})

	records, err := s.FetchProduction(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "KR", records[0].ZoneKey)
	assert.Equal(t, "new.kpx.or.kr", records[0].Source)
}

func TestFetchProduction_LongTerm(t *testing.T) {
	fake := &fakeKPX{t: t}
	s := newTestScraper(t, fake)
	loc := s.Location()
	target := time.Date(2022, 2, 7, 12, 0, 0, 0, loc)

	records, err := s.FetchProduction(context.Background(), Request{Target: &target, ZoneKey: "KR"})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int32(2), fake.requests.Load())

	first := records[0]
	assert.Equal(t, time.Date(2022, 2, 7, 1, 0, 0, 0, loc), first.Datetime)
	assert.Equal(t, 2300.0, first.Production[models.Unknown])
	assert.Equal(t, 20000.0, first.Production[models.Gas])
	assert.Equal(t, 30000.0, first.Production[models.Coal])
	assert.Equal(t, 22000.0, first.Production[models.Nuclear])

	second := records[1]
	assert.Equal(t, time.Date(2022, 2, 7, 2, 0, 0, 0, loc), second.Datetime)
	assert.Equal(t, 2034.0, second.Production[models.Unknown])

	last := records[2]
	assert.Equal(t, time.Date(2022, 2, 8, 0, 0, 0, 0, loc), last.Datetime)
	assert.Equal(t, 500.0, last.Production[models.Unknown])
	assert.Equal(t, 28000.0, last.Production[models.Coal])
}

func TestFetchProduction_SharedSession(t *testing.T) {
	s := newTestScraper(t, &fakeKPX{t: t})
	sess, err := s.NewSession()
	require.NoError(t, err)
	target := time.Date(2022, 2, 7, 0, 0, 0, 0, s.Location())

	_, err = s.FetchProduction(context.Background(), Request{Target: &target, Session: sess})
	require.NoError(t, err)

	token, ok := sess.Cookie(s.longTermURL, "XSRF-TOKEN")
	assert.True(t, ok)
	assert.Equal(t, "token-123", token)
}

func TestFetchProduction_BeforeHistoryStart(t *testing.T) {
	fake := &fakeKPX{t: t}
	s := newTestScraper(t, fake)
	target := time.Date(2021, 12, 21, 23, 59, 0, 0, s.Location())

	records, err := s.FetchProduction(context.Background(), Request{Target: &target})

	var rangeErr *UnsupportedRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Nil(t, records)
	assert.Equal(t, int32(0), fake.requests.Load())
}

func TestFetchProduction_MissingCSRFCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	t.Cleanup(srv.Close)

	s, err := NewKPXScraper(&config.Config{URLs: config.URLConfig{LongTerm: srv.URL + "/powerSource.es"}})
	require.NoError(t, err)
	target := time.Date(2022, 2, 7, 0, 0, 0, 0, s.Location())

	_, err = s.FetchProduction(context.Background(), Request{Target: &target})

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Contains(t, extractErr.Error(), "XSRF-TOKEN")
}

func TestFetchProduction_TransportError(t *testing.T) {
	s := newTestScraper(t, &fakeKPX{t: t, status: http.StatusBadGateway})

	_, err := s.FetchProduction(context.Background(), Request{})

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	assert.True(t, transportErr.Temporary())
}

func TestFetchConsumption(t *testing.T) {
	s := newTestScraper(t, &fakeKPX{t: t})

	records, err := s.FetchConsumption(context.Background(), Request{ZoneKey: "KR"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 62345.0, records[0].Consumption)
	assert.Equal(t, time.Date(2022, 2, 7, 16, 35, 0, 0, s.Location()), records[0].Datetime)
}

func TestFetchConsumption_PastDateUnsupported(t *testing.T) {
	fake := &fakeKPX{t: t}
	s := newTestScraper(t, fake)
	target := time.Date(2022, 2, 7, 16, 0, 0, 0, s.Location())

	_, err := s.FetchConsumption(context.Background(), Request{Target: &target})

	var opErr *UnsupportedOperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, int32(0), fake.requests.Load())
}

func TestFetchPrice(t *testing.T) {
	fake := &fakeKPX{t: t, price: priceTableHTML(7, defaultPriceCell)}
	s := newTestScraper(t, fake)

	records, err := s.FetchPrice(context.Background(), Request{})
	require.NoError(t, err)
	assert.Len(t, records, 7*24)
	assert.Equal(t, "KRW", records[0].Currency)
}

func TestFetchPrice_Window(t *testing.T) {
	fake := &fakeKPX{t: t, price: priceTableHTML(7, defaultPriceCell)}
	s := newTestScraper(t, fake)
	loc := s.Location()

	tooOld := time.Date(2022, 2, 1, 0, 59, 0, 0, loc)
	_, err := s.FetchPrice(context.Background(), Request{Target: &tooOld})
	var rangeErr *UnsupportedRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, time.Date(2022, 2, 1, 1, 0, 0, 0, loc), rangeErr.Earliest)
	assert.Equal(t, int32(0), fake.requests.Load())

	oldest := time.Date(2022, 2, 1, 1, 0, 0, 0, loc)
	_, err = s.FetchPrice(context.Background(), Request{Target: &oldest})
	assert.NoError(t, err)
}
