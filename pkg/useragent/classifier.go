// Package useragent derives coarse device, browser and OS categories from
// raw User-Agent strings. This is a deliberately simplified substring
// heuristic, not a full parser; the check order is part of the contract
// because the substrings overlap (a Chrome-on-Android agent contains both
// "Chrome" and "Safari").
package useragent

import "strings"

// Info holds the derived categories for one User-Agent string.
type Info struct {
	Device  string // mobile, tablet, desktop
	Browser string // Chrome, Firefox, Safari, Edge, Unknown
	OS      string // Windows, macOS, Linux, Android, iOS, Unknown
}

// Classify derives device, browser and OS categories from a raw
// User-Agent string. The three checks are independent.
func Classify(userAgent string) Info {
	return Info{
		Device:  classifyDevice(userAgent),
		Browser: classifyBrowser(userAgent),
		OS:      classifyOS(userAgent),
	}
}

func classifyDevice(ua string) string {
	switch {
	case strings.Contains(ua, "Mobile"):
		return "mobile"
	case strings.Contains(ua, "Tablet"):
		return "tablet"
	default:
		return "desktop"
	}
}

func classifyBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "Chrome"):
		return "Chrome"
	case strings.Contains(ua, "Firefox"):
		return "Firefox"
	case strings.Contains(ua, "Safari"):
		return "Safari"
	case strings.Contains(ua, "Edge"):
		return "Edge"
	default:
		return "Unknown"
	}
}

func classifyOS(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Mac"):
		return "macOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iOS"):
		return "iOS"
	default:
		return "Unknown"
	}
}
