package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "KR", cfg.GetZoneKey())
	assert.Equal(t, "new.kpx.or.kr", cfg.GetSource())
	assert.Equal(t, "KRW", cfg.GetCurrency())
	assert.True(t, cfg.GetInsecureSkipVerify())
	assert.Equal(t, 30*time.Second, cfg.GetHTTPTimeout())
	assert.Equal(t, DefaultRealtimeURL, cfg.GetRealtimeURL())
	assert.Equal(t, DefaultPriceURL, cfg.GetPriceURL())
	assert.Equal(t, DefaultLongTermURL, cfg.GetLongTermURL())
	assert.Equal(t, "kpx", cfg.MQTT.GetTopicPrefix())

	loc, err := cfg.GetLocation()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
zone_key: KR-TEST
timezone: UTC
insecure_skip_verify: false
http_timeout_seconds: 5
urls:
  price: http://localhost/price
mqtt:
  enabled: true
  broker: localhost:1883
  topic_prefix: grid
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "KR-TEST", cfg.GetZoneKey())
	assert.False(t, cfg.GetInsecureSkipVerify())
	assert.Equal(t, 5*time.Second, cfg.GetHTTPTimeout())
	assert.Equal(t, "http://localhost/price", cfg.GetPriceURL())
	assert.Equal(t, DefaultRealtimeURL, cfg.GetRealtimeURL())
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "grid", cfg.MQTT.GetTopicPrefix())

	loc, err := cfg.GetLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC.String(), loc.String())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("zone_key: [unclosed"), 0600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	skip := false
	require.NoError(t, Save(path, &Config{ZoneKey: "KR", InsecureSkipVerify: &skip}))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.GetInsecureSkipVerify())
}

func TestGetLocation_Invalid(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	_, err := cfg.GetLocation()
	assert.Error(t, err)
}

func TestDefaults_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, Defaults()))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultZoneKey, cfg.ZoneKey)
	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	assert.Equal(t, 30, cfg.HTTPTimeoutSeconds)
	assert.Equal(t, DefaultLongTermURL, cfg.URLs.LongTerm)
	require.NotNil(t, cfg.InsecureSkipVerify)
	assert.True(t, *cfg.InsecureSkipVerify)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "localhost:1883", cfg.MQTT.Broker)
}
