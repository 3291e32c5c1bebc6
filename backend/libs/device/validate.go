package device

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"unicode"
)

const maxDeviceIDLength = 128

// The firmware stores timings in an unsigned long.
const maxTimingMS = math.MaxUint32

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("device: invalid configuration")

// Validate checks every field and reports all violations at once.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(key, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s %s", ErrInvalid, key, fmt.Sprintf(format, args...)))
	}

	if strings.TrimSpace(c.WiFi.SSID) == "" {
		invalid(KeyWiFiSSID, "must not be empty")
	}
	if c.WiFi.Password == "" {
		invalid(KeyWiFiPassword, "must not be empty")
	}

	switch id := c.Device.ID; {
	case strings.TrimSpace(id) == "":
		invalid(KeyDeviceID, "must not be empty")
	case len(id) > maxDeviceIDLength:
		invalid(KeyDeviceID, "must be at most %d bytes", maxDeviceIDLength)
	case strings.IndexFunc(id, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		invalid(KeyDeviceID, "must not contain whitespace or control characters")
	}

	if err := validateEndpoint(c.API.Endpoint); err != nil {
		invalid(KeyAPIEndpoint, "%v", err)
	}
	if strings.TrimSpace(c.API.Key) == "" {
		invalid(KeyAPIKey, "must not be empty")
	}

	for _, t := range []struct {
		key string
		ms  int64
	}{
		{KeyReadingIntervalMS, c.Timing.ReadingIntervalMS},
		{KeyWiFiTimeoutMS, c.Timing.WiFiTimeoutMS},
		{KeyHTTPTimeoutMS, c.Timing.HTTPTimeoutMS},
	} {
		switch {
		case t.ms <= 0:
			invalid(t.key, "must be positive, got %d", t.ms)
		case t.ms > maxTimingMS:
			invalid(t.key, "must be at most %d, got %d", int64(maxTimingMS), t.ms)
		}
	}

	return errors.Join(errs...)
}

func validateEndpoint(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a URL: %v", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("must use https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}
