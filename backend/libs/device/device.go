// Package device holds the per-unit configuration record baked into an air
// monitor firmware image: network credentials, identity, the readings API and
// timing parameters.
package device

import (
	"time"

	"go.uber.org/zap/zapcore"

	libconfig "airmonitor/backend/libs/config"
)

// Placeholder values shipped in the checked-in template.
const (
	PlaceholderSSID     = "Your_WiFi_Network_Name"
	PlaceholderPassword = "Your_WiFi_Password"
	PlaceholderEndpoint = "https://your-api-id.execute-api.us-east-1.amazonaws.com/prod/readings"
	PlaceholderAPIKey   = "Your_API_Key"

	DefaultDeviceID          = "air-monitor-01"
	DefaultReadingIntervalMS = 300000
	DefaultWiFiTimeoutMS     = 10000
	DefaultHTTPTimeoutMS     = 5000
)

const redactedMask = "********"

// Config is the device configuration record. It is fixed for the lifetime of a firmware image.
type Config struct {
	WiFi   WiFi   `yaml:"wifi"`
	Device Device `yaml:"device"`
	API    API    `yaml:"api"`
	Timing Timing `yaml:"timing"`
}

// WiFi holds the credentials of the deployment network.
type WiFi struct {
	SSID     string `yaml:"ssid" env:"WIFI_SSID"`
	Password string `yaml:"password" env:"WIFI_PASSWORD"`
}

// Device identifies the physical unit. Change the ID for each device in a fleet.
type Device struct {
	ID string `yaml:"id" env:"DEVICE_ID"`
}

// API locates the readings endpoint and the key it expects.
type API struct {
	Endpoint string `yaml:"endpoint" env:"API_ENDPOINT"`
	Key      string `yaml:"key" env:"API_KEY"`
}

// Timing is expressed in milliseconds, the unit the firmware works in.
type Timing struct {
	ReadingIntervalMS int64 `yaml:"readingIntervalMs" env:"READING_INTERVAL_MS"`
	WiFiTimeoutMS     int64 `yaml:"wifiTimeoutMs" env:"WIFI_TIMEOUT_MS"`
	HTTPTimeoutMS     int64 `yaml:"httpTimeoutMs" env:"HTTP_TIMEOUT_MS"`
}

// Template returns the placeholder record that is copied and edited before a build.
func Template() *Config {
	return &Config{
		WiFi: WiFi{
			SSID:     PlaceholderSSID,
			Password: PlaceholderPassword,
		},
		Device: Device{ID: DefaultDeviceID},
		API: API{
			Endpoint: PlaceholderEndpoint,
			Key:      PlaceholderAPIKey,
		},
		Timing: Timing{
			ReadingIntervalMS: DefaultReadingIntervalMS,
			WiFiTimeoutMS:     DefaultWiFiTimeoutMS,
			HTTPTimeoutMS:     DefaultHTTPTimeoutMS,
		},
	}
}

// Load starts from the template, overlays the YAML file at path (skipped when
// absent) and then the WIFI_SSID, DEVICE_ID, ... environment variables, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnvalidated is Load without the final validation step.
func LoadUnvalidated(path string) (*Config, error) {
	cfg := Template()
	if err := libconfig.LoadFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadingInterval is the pause between two sensor readings.
func (c *Config) ReadingInterval() time.Duration {
	return time.Duration(c.Timing.ReadingIntervalMS) * time.Millisecond
}

// WiFiTimeout bounds a single network connect attempt.
func (c *Config) WiFiTimeout() time.Duration {
	return time.Duration(c.Timing.WiFiTimeoutMS) * time.Millisecond
}

// HTTPTimeout bounds a single POST to the readings API.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Timing.HTTPTimeoutMS) * time.Millisecond
}

// Placeholders lists the keys that still carry template values.
func (c *Config) Placeholders() []string {
	var keys []string
	if c.WiFi.SSID == PlaceholderSSID {
		keys = append(keys, KeyWiFiSSID)
	}
	if c.WiFi.Password == PlaceholderPassword {
		keys = append(keys, KeyWiFiPassword)
	}
	if c.API.Endpoint == PlaceholderEndpoint {
		keys = append(keys, KeyAPIEndpoint)
	}
	if c.API.Key == PlaceholderAPIKey {
		keys = append(keys, KeyAPIKey)
	}
	return keys
}

// Redacted returns a copy with the WiFi password and API key masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.WiFi.Password = mask(c.WiFi.Password)
	out.API.Key = mask(c.API.Key)
	return &out
}

// MarshalLogObject lets the record be logged with zap.Object without leaking secrets.
func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("device_id", c.Device.ID)
	enc.AddString("wifi_ssid", c.WiFi.SSID)
	enc.AddString("wifi_password", mask(c.WiFi.Password))
	enc.AddString("api_endpoint", c.API.Endpoint)
	enc.AddString("api_key", mask(c.API.Key))
	enc.AddDuration("reading_interval", c.ReadingInterval())
	enc.AddDuration("wifi_timeout", c.WiFiTimeout())
	enc.AddDuration("http_timeout", c.HTTPTimeout())
	return nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return redactedMask
}
