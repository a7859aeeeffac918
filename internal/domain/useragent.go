package domain

import "strings"

// User-agent classification uses ordered pattern tables, most specific
// first. Order matters: Edge ships the Chrome token, Opera ships both, and
// tablet agents frequently carry mobile tokens, so the first match wins.

type uaPattern struct {
	token string
	name  string
}

var browserPatterns = []uaPattern{
	{"edg/", "Microsoft Edge"},
	{"edge/", "Microsoft Edge"},
	{"opr/", "Opera"},
	{"opera", "Opera"},
	{"samsungbrowser/", "Samsung Internet"},
	{"firefox/", "Firefox"},
	{"chrome/", "Chrome"},
	{"crios/", "Chrome"},
	{"safari/", "Safari"},
	{"msie", "Internet Explorer"},
	{"trident/", "Internet Explorer"},
}

var osPatterns = []uaPattern{
	{"windows nt", "Windows"},
	{"windows phone", "Windows"},
	{"cros", "Chrome OS"},
	{"ipad", "iOS"},
	{"iphone", "iOS"},
	{"ipod", "iOS"},
	{"mac os x", "macOS"},
	{"android", "Android"},
	{"linux", "Linux"},
}

// Tablet patterns precede mobile patterns: an iPad agent that also carries
// an Android token must still classify as tablet.
var tabletPatterns = []string{"ipad", "tablet", "kindle", "silk/", "playbook"}
var mobilePatterns = []string{"mobile", "iphone", "ipod", "android", "windows phone", "blackberry"}

func matchPattern(ua string, patterns []uaPattern) string {
	for _, p := range patterns {
		if strings.Contains(ua, p.token) {
			return p.name
		}
	}
	return ""
}

// ClassifyBrowser returns the browser family for a raw user-agent string,
// or "Unknown" when no pattern matches.
func ClassifyBrowser(userAgent string) string {
	if name := matchPattern(strings.ToLower(userAgent), browserPatterns); name != "" {
		return name
	}
	return "Unknown"
}

// ClassifyOS returns the operating system family for a raw user-agent
// string, or "Unknown" when no pattern matches.
func ClassifyOS(userAgent string) string {
	if name := matchPattern(strings.ToLower(userAgent), osPatterns); name != "" {
		return name
	}
	return "Unknown"
}

// ClassifyDevice returns "tablet", "mobile" or "desktop". Tablet patterns
// are checked before mobile patterns; everything else is desktop.
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, token := range tabletPatterns {
		if strings.Contains(ua, token) {
			return "tablet"
		}
	}
	for _, token := range mobilePatterns {
		if strings.Contains(ua, token) {
			return "mobile"
		}
	}
	return "desktop"
}
