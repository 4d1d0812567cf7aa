package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      Info
	}{
		{
			name:      "chrome_on_windows_desktop",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want:      Info{Device: "desktop", Browser: "Chrome", OS: "Windows"},
		},
		{
			name:      "safari_on_mac_desktop",
			userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
			want:      Info{Device: "desktop", Browser: "Safari", OS: "macOS"},
		},
		{
			name:      "firefox_on_windows",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0",
			want:      Info{Device: "desktop", Browser: "Firefox", OS: "Windows"},
		},
		{
			// Android agents also contain "Linux"; the Linux check comes
			// first so that is what wins.
			name:      "chrome_on_android_mobile",
			userAgent: "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			want:      Info{Device: "mobile", Browser: "Chrome", OS: "Linux"},
		},
		{
			// iPhone agents say "like Mac OS X", and the Mac check runs
			// before the iOS one.
			name:      "safari_on_iphone_mobile",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			want:      Info{Device: "mobile", Browser: "Safari", OS: "macOS"},
		},
		{
			// Chrome agents also contain "Safari"; the Chrome check comes
			// first.
			name:      "chrome_wins_over_safari",
			userAgent: "Chrome Safari",
			want:      Info{Device: "desktop", Browser: "Chrome", OS: "Unknown"},
		},
		{
			name:      "edge_without_chrome_token",
			userAgent: "Mozilla/5.0 (Windows NT 10.0) Edge/18.17763",
			want:      Info{Device: "desktop", Browser: "Edge", OS: "Windows"},
		},
		{
			name:      "tablet",
			userAgent: "Mozilla/5.0 (Android 13; Tablet; rv:109.0) Gecko/119.0 Firefox/119.0",
			want:      Info{Device: "tablet", Browser: "Firefox", OS: "Linux"},
		},
		{
			// "Mobile" beats "Tablet" when both are present.
			name:      "mobile_wins_over_tablet",
			userAgent: "Mobile Tablet",
			want:      Info{Device: "mobile", Browser: "Unknown", OS: "Unknown"},
		},
		{
			// Matching is case sensitive.
			name:      "lowercase_tokens_do_not_match",
			userAgent: "mobile chrome windows",
			want:      Info{Device: "desktop", Browser: "Unknown", OS: "Unknown"},
		},
		{
			name:      "empty",
			userAgent: "",
			want:      Info{Device: "desktop", Browser: "Unknown", OS: "Unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.userAgent))
		})
	}
}

func TestClassifyChecksAreIndependent(t *testing.T) {
	// A device match never suppresses the browser or OS checks.
	info := Classify("Mobile Firefox Windows")
	assert.Equal(t, "mobile", info.Device)
	assert.Equal(t, "Firefox", info.Browser)
	assert.Equal(t, "Windows", info.OS)
}
