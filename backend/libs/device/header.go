package device

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Keys used by the firmware header and the environment overrides.
const (
	KeyWiFiSSID          = "WIFI_SSID"
	KeyWiFiPassword      = "WIFI_PASSWORD"
	KeyDeviceID          = "DEVICE_ID"
	KeyAPIEndpoint       = "API_ENDPOINT"
	KeyAPIKey            = "API_KEY"
	KeyReadingIntervalMS = "READING_INTERVAL_MS"
	KeyWiFiTimeoutMS     = "WIFI_TIMEOUT_MS"
	KeyHTTPTimeoutMS     = "HTTP_TIMEOUT_MS"
)

const headerGuard = "CONFIG_H"

var defineLine = regexp.MustCompile(`^\s*#\s*define\s+([A-Za-z_][A-Za-z0-9_]*)(?:\s+(.*))?$`)

type section struct {
	title   string
	entries []entry
}

type entry struct {
	key     string
	value   string
	comment string
}

func sections(c *Config) []section {
	ms := func(v int64) string { return strconv.FormatInt(v, 10) }
	return []section{
		{"WiFi Configuration", []entry{
			{KeyWiFiSSID, cString(c.WiFi.SSID), ""},
			{KeyWiFiPassword, cString(c.WiFi.Password), ""},
		}},
		{"Device Configuration", []entry{
			{KeyDeviceID, cString(c.Device.ID), "Change for each device: 01, 02, 03, etc."},
		}},
		{"API Configuration", []entry{
			{KeyAPIEndpoint, cString(c.API.Endpoint), ""},
			{KeyAPIKey, cString(c.API.Key), ""},
		}},
		{"Timing Configuration", []entry{
			{KeyReadingIntervalMS, ms(c.Timing.ReadingIntervalMS), c.ReadingInterval().String()},
			{KeyWiFiTimeoutMS, ms(c.Timing.WiFiTimeoutMS), c.WiFiTimeout().String()},
			{KeyHTTPTimeoutMS, ms(c.Timing.HTTPTimeoutMS), c.HTTPTimeout().String()},
		}},
	}
}

// WriteHeader renders the record as the C header the firmware includes.
func WriteHeader(w io.Writer, c *Config) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "// Air Monitor Configuration")
	fmt.Fprintln(bw, "// Generated by airctl. Holds secrets: keep this file out of version control.")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "#ifndef %s\n#define %s\n", headerGuard, headerGuard)

	for _, s := range sections(c) {
		fmt.Fprintf(bw, "\n// %s\n", s.title)
		for _, e := range s.entries {
			if e.comment != "" {
				fmt.Fprintf(bw, "#define %s %s  // %s\n", e.key, e.value, e.comment)
				continue
			}
			fmt.Fprintf(bw, "#define %s %s\n", e.key, e.value)
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "#endif")
	return bw.Flush()
}

// WriteYAML renders the record as the YAML working file read by Load.
func WriteYAML(w io.Writer, c *Config) error {
	if _, err := io.WriteString(w, "# Air Monitor device configuration.\n# Copy to config.yaml, fill in real values and keep the copy out of version control.\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("device: encode yaml: %w", err)
	}
	return enc.Close()
}

// ParseHeader reads #define lines from an existing firmware header. Keys missing
// from the header keep their template values; unknown keys are ignored.
func ParseHeader(r io.Reader) (*Config, error) {
	cfg := Template()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		m := defineLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		key := m[1]
		raw := strings.TrimSpace(m[2])
		if raw == "" {
			continue
		}
		if err := cfg.assign(key, raw); err != nil {
			return nil, fmt.Errorf("device: header line %d: %s: %w", lineNo, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("device: read header: %w", err)
	}
	return cfg, nil
}

func (c *Config) assign(key, raw string) error {
	var str *string
	var num *int64
	switch key {
	case KeyWiFiSSID:
		str = &c.WiFi.SSID
	case KeyWiFiPassword:
		str = &c.WiFi.Password
	case KeyDeviceID:
		str = &c.Device.ID
	case KeyAPIEndpoint:
		str = &c.API.Endpoint
	case KeyAPIKey:
		str = &c.API.Key
	case KeyReadingIntervalMS:
		num = &c.Timing.ReadingIntervalMS
	case KeyWiFiTimeoutMS:
		num = &c.Timing.WiFiTimeoutMS
	case KeyHTTPTimeoutMS:
		num = &c.Timing.HTTPTimeoutMS
	default:
		return nil
	}

	if str != nil {
		v, err := parseCString(raw)
		if err != nil {
			return err
		}
		*str = v
		return nil
	}
	v, err := parseCInteger(raw)
	if err != nil {
		return err
	}
	*num = v
	return nil
}

// cString quotes s as a C string literal. Control bytes and bytes that are not
// valid UTF-8 use three digit octal escapes.
func cString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); {
		ch := s[i]
		if ch >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				fmt.Fprintf(&b, `\%03o`, ch)
			} else {
				b.WriteString(s[i : i+size])
			}
			i += size
			continue
		}
		switch ch {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if ch < 0x20 || ch == 0x7f {
				fmt.Fprintf(&b, `\%03o`, ch)
			} else {
				b.WriteByte(ch)
			}
		}
		i++
	}
	b.WriteByte('"')
	return b.String()
}

// parseCString decodes one or more adjacent C string literals, optionally
// followed by a comment.
func parseCString(raw string) (string, error) {
	var b strings.Builder
	rest := strings.TrimSpace(raw)
	literals := 0
	for rest != "" && !isComment(rest) {
		if rest[0] != '"' {
			if literals == 0 {
				return "", fmt.Errorf("expected string literal, got %q", raw)
			}
			return "", fmt.Errorf("unexpected text after string literal: %q", rest)
		}
		n, err := unescapeC(&b, rest)
		if err != nil {
			return "", err
		}
		literals++
		rest = strings.TrimSpace(rest[n:])
	}
	if literals == 0 {
		return "", fmt.Errorf("expected string literal, got %q", raw)
	}
	return b.String(), nil
}

// unescapeC writes the contents of the literal at the start of lit to b and
// returns the number of bytes consumed, closing quote included.
func unescapeC(b *strings.Builder, lit string) (int, error) {
	for i := 1; i < len(lit); {
		switch lit[i] {
		case '"':
			return i + 1, nil
		case '\\':
			i++
		default:
			b.WriteByte(lit[i])
			i++
			continue
		}
		if i >= len(lit) {
			break
		}

		esc := lit[i]
		if c, ok := simpleEscapes[esc]; ok {
			b.WriteByte(c)
			i++
			continue
		}
		switch {
		case esc >= '0' && esc <= '7':
			v, j := 0, i
			for j < len(lit) && j < i+3 && lit[j] >= '0' && lit[j] <= '7' {
				v = v*8 + int(lit[j]-'0')
				j++
			}
			if v > 0xff {
				return 0, fmt.Errorf("octal escape out of range in %q", lit[i-1:j])
			}
			b.WriteByte(byte(v))
			i = j
		case esc == 'x':
			v, j := 0, i+1
			for j < len(lit) && isHexDigit(lit[j]) {
				v = v*16 + hexValue(lit[j])
				if v > 0xff {
					return 0, fmt.Errorf("hex escape out of range in %q", lit[i-1:j+1])
				}
				j++
			}
			if j == i+1 {
				return 0, fmt.Errorf("hex escape without digits in %q", lit)
			}
			b.WriteByte(byte(v))
			i = j
		default:
			return 0, fmt.Errorf("unknown escape sequence \\%c in %q", esc, lit)
		}
	}
	return 0, fmt.Errorf("unterminated string literal %q", lit)
}

var simpleEscapes = map[byte]byte{
	'a': '\a', 'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t', 'v': '\v',
	'\\': '\\', '\'': '\'', '"': '"', '?': '?',
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func hexValue(c byte) int {
	switch {
	case c >= 'a':
		return int(c-'a') + 10
	case c >= 'A':
		return int(c-'A') + 10
	default:
		return int(c - '0')
	}
}

func parseCInteger(raw string) (int64, error) {
	if i := strings.Index(raw, "//"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.Index(raw, "/*"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimRight(strings.TrimSpace(raw), "uUlL")
	return strconv.ParseInt(raw, 0, 64)
}

func isComment(s string) bool {
	return strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/*")
}
