package scraper

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/kpxscraper/pkg/models"
)

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestExtractRealtimeProduction(t *testing.T) {
	loc := seoul(t)

	list, err := ExtractRealtimeProduction(readFixture(t, "realtime.html"), "KR", "new.kpx.or.kr", loc, nil)
	require.NoError(t, err)

	out := list.ToList()
	// The "0" slot ends the data even though a valid-looking sample follows it.
	require.Len(t, out, 2)

	first := out[0]
	assert.Equal(t, time.Date(2022, 2, 7, 16, 0, 0, 0, loc), first.Datetime)
	assert.Equal(t, "KR", first.ZoneKey)
	assert.Equal(t, "new.kpx.or.kr", first.Source)
	assert.InDelta(t, 20600.5, first.Production[models.Coal], 1e-9)
	assert.Equal(t, 15000.0, first.Production[models.Gas])
	assert.Equal(t, 300.0, first.Production[models.Hydro])
	assert.Equal(t, 20000.0, first.Production[models.Nuclear])
	assert.Equal(t, 100.0, first.Production[models.Oil])
	assert.Equal(t, 2500.0, first.Production[models.Unknown])
	assert.Equal(t, -400.0, first.Storage[models.Hydro])

	second := out[1]
	assert.Equal(t, time.Date(2022, 2, 7, 16, 5, 0, 0, loc), second.Datetime)
	assert.Equal(t, 20500.0, second.Production[models.Coal])
}

func TestExtractRealtimeProduction_RecordInvariants(t *testing.T) {
	loc := seoul(t)

	list, err := ExtractRealtimeProduction(readFixture(t, "realtime.html"), "KR", "src", loc, nil)
	require.NoError(t, err)

	for _, rec := range list.ToList() {
		assert.Equal(t, loc.String(), rec.Datetime.Location().String())
		for category, value := range rec.Production {
			assert.GreaterOrEqual(t, value, 0.0, category)
		}
		assert.LessOrEqual(t, rec.Storage[models.Hydro], 0.0)
	}
}

func TestExtractRealtimeProduction_PatternMissing(t *testing.T) {
	_, err := ExtractRealtimeProduction("<html><script>var other = [];</script></html>", "KR", "src", seoul(t), nil)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Contains(t, extractErr.Error(), "ictArr")
}

func TestExtractRealtimeProduction_UnknownKeyFails(t *testing.T) {
	page := `var ictArr = [{regDate:"2022-02-07 16:00",coal:"1",solar:"5"}];`

	_, err := ExtractRealtimeProduction(page, "KR", "src", seoul(t), nil)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Contains(t, extractErr.Error(), `"solar"`)
}

func TestExtractRealtimeProduction_BadNumber(t *testing.T) {
	page := `var ictArr = [{regDate:"2022-02-07 16:00",coal:"n/a",localCoal:"0",gas:"0",waterPower:"0",nuclearPower:"0",oil:"0",newRenewable:"0",raisingWater:"0"}];`

	_, err := ExtractRealtimeProduction(page, "KR", "src", seoul(t), nil)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "coal", parseErr.Field)
}

func TestExtractRealtimeProduction_MissingField(t *testing.T) {
	page := `var ictArr = [{regDate:"2022-02-07 16:00",coal:"1"}];`

	_, err := ExtractRealtimeProduction(page, "KR", "src", seoul(t), nil)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Contains(t, extractErr.Error(), "localCoal")
}

func TestExtractRealtimeProduction_BadDate(t *testing.T) {
	page := `var ictArr = [{regDate:"07/02/2022 16:00",coal:"1"}];`

	_, err := ExtractRealtimeProduction(page, "KR", "src", seoul(t), nil)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "regDate", parseErr.Field)
}

func TestNormalizeScriptArray(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare keys",
			in:   `[{seq:1,regDate:"2022-02-07 16:00"}]`,
			want: `[{"seq":1,"regDate":"2022-02-07 16:00"}]`,
		},
		{
			name: "already quoted keys",
			in:   `[{"coal":"1", gas : "2"}]`,
			want: `[{"coal":"1", "gas" : "2"}]`,
		},
		{
			name: "string contents untouched",
			in:   `[{oil:"{x:1,y:\"z\"}"}]`,
			want: `[{"oil":"{x:1,y:\"z\"}"}]`,
		},
		{
			name: "bare values",
			in:   `[{once:null,seq:true}, null]`,
			want: `[{"once":null,"seq":true}, null]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeScriptArray(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeScriptArray_Errors(t *testing.T) {
	_, err := normalizeScriptArray(`[{coal:"1",extra:"2"}]`)
	assert.ErrorContains(t, err, `unsupported key "extra"`)

	_, err = normalizeScriptArray(`[{coal:"1}]`)
	assert.ErrorContains(t, err, "unterminated string")
}
