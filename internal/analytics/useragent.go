// internal/analytics/useragent.go
package analytics

import "github.com/mssola/useragent"

const unknown = "unknown"

// Device classes reported for a view.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceBot     = "bot"
)

// ParseUserAgent extracts the platform, browser and device class of a
// User-Agent header.
func ParseUserAgent(header string) (platform, browser, device string) {
	ua := useragent.New(header)

	platform = ua.Platform()
	if platform == "" {
		platform = unknown
	}
	browser, _ = ua.Browser()
	if browser == "" {
		browser = unknown
	}

	switch {
	case ua.Bot():
		device = DeviceBot
	case ua.Mobile():
		device = DeviceMobile
	default:
		device = DeviceDesktop
	}
	return platform, browser, device
}
