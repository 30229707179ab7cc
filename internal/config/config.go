package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Defaults for the Korea Power Exchange site
const (
	DefaultZoneKey     = "KR"
	DefaultTimezone    = "Asia/Seoul"
	DefaultSource      = "new.kpx.or.kr"
	DefaultCurrency    = "KRW"
	DefaultRealtimeURL = "https://new.kpx.or.kr/powerinfoSubmain.es?mid=a10606030000"
	DefaultPriceURL    = "https://new.kpx.or.kr/smpInland.es?mid=a10606080100&device=pc"
	DefaultLongTermURL = "https://new.kpx.or.kr/powerSource.es?mid=a10606030000&device=chart"
	DefaultHTTPTimeout = 30 * time.Second
)

// Config holds the application configuration
type Config struct {
	ZoneKey            string     `yaml:"zone_key,omitempty"`
	Timezone           string     `yaml:"timezone,omitempty"`
	Source             string     `yaml:"source,omitempty"`
	Currency           string     `yaml:"currency,omitempty"`
	InsecureSkipVerify *bool      `yaml:"insecure_skip_verify,omitempty"` // nil means true: the operator site has broken TLS chains
	HTTPTimeoutSeconds int        `yaml:"http_timeout_seconds,omitempty"`
	URLs               URLConfig  `yaml:"urls,omitempty"`
	MQTT               MQTTConfig `yaml:"mqtt,omitempty"`
}

// URLConfig overrides the operator page locations
type URLConfig struct {
	Realtime string `yaml:"realtime,omitempty"`
	Price    string `yaml:"price,omitempty"`
	LongTerm string `yaml:"long_term,omitempty"`
}

// MQTTConfig holds MQTT broker settings for publishing records
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`                 // host:port
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // default "kpx"
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with every setting filled in, for writing a starter file
func Defaults() *Config {
	skip := true
	return &Config{
		ZoneKey:            DefaultZoneKey,
		Timezone:           DefaultTimezone,
		Source:             DefaultSource,
		Currency:           DefaultCurrency,
		InsecureSkipVerify: &skip,
		HTTPTimeoutSeconds: int(DefaultHTTPTimeout / time.Second),
		URLs: URLConfig{
			Realtime: DefaultRealtimeURL,
			Price:    DefaultPriceURL,
			LongTerm: DefaultLongTermURL,
		},
		MQTT: MQTTConfig{
			Broker:      "localhost:1883",
			TopicPrefix: "kpx",
		},
	}
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetZoneKey returns the zone key, default "KR"
func (c *Config) GetZoneKey() string {
	if c.ZoneKey == "" {
		return DefaultZoneKey
	}
	return c.ZoneKey
}

// GetLocation resolves the operator timezone
func (c *Config) GetLocation() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

// GetSource returns the source tag stamped on every record
func (c *Config) GetSource() string {
	if c.Source == "" {
		return DefaultSource
	}
	return c.Source
}

// GetCurrency returns the price currency code
func (c *Config) GetCurrency() string {
	if c.Currency == "" {
		return DefaultCurrency
	}
	return c.Currency
}

// GetInsecureSkipVerify reports whether TLS verification is disabled (default true)
func (c *Config) GetInsecureSkipVerify() bool {
	if c.InsecureSkipVerify == nil {
		return true
	}
	return *c.InsecureSkipVerify
}

// GetHTTPTimeout returns the per-request timeout
func (c *Config) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return DefaultHTTPTimeout
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// GetRealtimeURL returns the realtime info page URL
func (c *Config) GetRealtimeURL() string {
	if c.URLs.Realtime != "" {
		return c.URLs.Realtime
	}
	return DefaultRealtimeURL
}

// GetPriceURL returns the price page URL
func (c *Config) GetPriceURL() string {
	if c.URLs.Price != "" {
		return c.URLs.Price
	}
	return DefaultPriceURL
}

// GetLongTermURL returns the long-term production endpoint URL
func (c *Config) GetLongTermURL() string {
	if c.URLs.LongTerm != "" {
		return c.URLs.LongTerm
	}
	return DefaultLongTermURL
}

// GetTopicPrefix returns the MQTT topic prefix, default "kpx"
func (m MQTTConfig) GetTopicPrefix() string {
	if m.TopicPrefix == "" {
		return "kpx"
	}
	return m.TopicPrefix
}
