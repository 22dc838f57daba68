package useragent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Client kinds.
const (
	KindBot     = "bot"
	KindMobile  = "mobile"
	KindTablet  = "tablet"
	KindDesktop = "desktop"
	KindUnknown = "unknown"
)

// Parser classifies the clients that hit the login endpoint.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// Client is the parsed form of a User-Agent header.
type Client struct {
	Kind    string
	Browser string
	OS      string
}

// Fields returns the client as log fields.
func (c Client) Fields() []zap.Field {
	return []zap.Field{
		zap.String("client_kind", c.Kind),
		zap.String("client_browser", c.Browser),
		zap.String("client_os", c.OS),
	}
}

// NewParser loads regexes from regexFilePath. An empty path or a missing file
// falls back to the definitions compiled into uap-go.
func NewParser(regexFilePath string, log *zap.Logger) (*Parser, error) {
	if regexFilePath != "" {
		if data, err := os.ReadFile(regexFilePath); err == nil {
			p, err := uaparser.NewFromBytes(data)
			if err != nil {
				return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
			}
			log.Info("User-Agent parser initialized", zap.String("regexes_file", regexFilePath))
			return &Parser{parser: p, log: log}, nil
		}
		log.Warn("regexes file not readable, using built-in definitions", zap.String("regexes_file", regexFilePath))
	}

	return &Parser{parser: uaparser.NewFromSaved(), log: log}, nil
}

// Parse classifies a User-Agent header. A nil parser classifies nothing.
func (p *Parser) Parse(userAgent string) Client {
	if p == nil || userAgent == "" {
		return Client{Kind: KindUnknown, Browser: KindUnknown, OS: KindUnknown}
	}

	ua := p.parser.Parse(userAgent)
	return Client{
		Kind:    kindOf(ua, userAgent),
		Browser: orUnknown(ua.UserAgent.Family),
		OS:      orUnknown(ua.Os.Family),
	}
}

var (
	botMarkers     = []string{"bot", "crawler", "spider", "scraper", "slurp", "facebookexternalhit", "curl", "wget"}
	tabletDevices  = []string{"ipad", "tablet", "kindle", "surface"}
	mobileDevices  = []string{"iphone", "android", "blackberry", "windows phone", "mobile", "phone"}
	mobileSystems  = []string{"ios", "android", "windows phone", "blackberry os", "firefox os", "sailfish os"}
	desktopSystems = []string{"windows", "mac os x", "macos", "linux", "ubuntu", "chrome os", "freebsd", "openbsd", "netbsd"}
)

func kindOf(ua *uaparser.Client, raw string) string {
	if ua.Device.Family == "Spider" || containsAny(ua.UserAgent.Family, botMarkers) || containsAny(raw, botMarkers) {
		return KindBot
	}

	if device := ua.Device.Family; device != "" && device != "Other" {
		if containsAny(device, tabletDevices) {
			return KindTablet
		}
		if containsAny(device, mobileDevices) {
			return KindMobile
		}
	}

	osFamily := ua.Os.Family
	switch {
	case containsAny(osFamily, mobileSystems):
		// Android tablets omit "Mobile"; iPads say so explicitly.
		if strings.Contains(raw, "iPad") || (strings.Contains(osFamily, "Android") && !strings.Contains(raw, "Mobile")) {
			return KindTablet
		}
		return KindMobile
	case containsAny(osFamily, desktopSystems):
		return KindDesktop
	default:
		return KindUnknown
	}
}

func containsAny(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if lower != "" && strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if s == "" || s == "Other" {
		return KindUnknown
	}
	return s
}
