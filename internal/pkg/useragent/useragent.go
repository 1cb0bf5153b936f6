// Package useragent classifies viewer user agent strings into the coarse
// device and browser buckets used by the analytics breakdowns.
package useragent

import "strings"

// Device buckets
const (
	DeviceDesktop = "desktop"
	DeviceTablet  = "tablet"
	DeviceMobile  = "mobile"
)

// Browser buckets
const (
	BrowserChrome  = "Chrome"
	BrowserFirefox = "Firefox"
	BrowserSafari  = "Safari"
	BrowserEdge    = "Edge"
	BrowserOther   = "Other"
)

// ClassifyDevice maps a user agent to desktop, tablet or mobile. Tablets are
// checked before mobile: an iPad UA also contains "Mobile", so order matters.
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)

	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return DeviceTablet
	}
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone") {
		return DeviceMobile
	}
	return DeviceDesktop
}

// ClassifyBrowser maps a user agent to a browser family. Chromium-based
// browsers embed each other's tokens, so the exclusions are load-bearing:
// Edge carries "Chrome" and Chrome carries "Safari".
func ClassifyBrowser(userAgent string) string {
	ua := strings.ToLower(userAgent)

	switch {
	case strings.Contains(ua, "edg"):
		return BrowserEdge
	case strings.Contains(ua, "chrome"):
		return BrowserChrome
	case strings.Contains(ua, "safari"):
		return BrowserSafari
	case strings.Contains(ua, "firefox"):
		return BrowserFirefox
	}
	return BrowserOther
}
