package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	edgeUA    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91"
	chromeUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	operaUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36 OPR/105.0.0.0"
	safariUA  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15"
	firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	ipadUA    = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
)

func TestClassifyBrowser_EdgeBeforeChrome(t *testing.T) {
	// Edge ships the Chrome token; the Edge pattern must win.
	assert.Equal(t, "Microsoft Edge", ClassifyBrowser(edgeUA))
}

func TestClassifyBrowser_ChromeOnly(t *testing.T) {
	assert.Equal(t, "Chrome", ClassifyBrowser(chromeUA))
}

func TestClassifyBrowser_OperaBeforeChrome(t *testing.T) {
	assert.Equal(t, "Opera", ClassifyBrowser(operaUA))
}

func TestClassifyBrowser_SafariNotChrome(t *testing.T) {
	assert.Equal(t, "Safari", ClassifyBrowser(safariUA))
}

func TestClassifyBrowser_Firefox(t *testing.T) {
	assert.Equal(t, "Firefox", ClassifyBrowser(firefoxUA))
}

func TestClassifyBrowser_Unknown(t *testing.T) {
	assert.Equal(t, "Unknown", ClassifyBrowser("curl/8.4.0"))
}

func TestClassifyOS(t *testing.T) {
	assert.Equal(t, "Windows", ClassifyOS(edgeUA))
	assert.Equal(t, "macOS", ClassifyOS(safariUA))
	assert.Equal(t, "iOS", ClassifyOS(iphoneUA))
	assert.Equal(t, "iOS", ClassifyOS(ipadUA))
	assert.Equal(t, "Linux", ClassifyOS(firefoxUA))
}

func TestClassifyDevice_TabletBeforeMobile(t *testing.T) {
	// An iPad agent that also carries an Android token still classifies
	// as tablet: tablet patterns are checked first.
	mixed := "Mozilla/5.0 (iPad; Android 13) AppleWebKit/605.1.15 Mobile Safari/604.1"
	assert.Equal(t, "tablet", ClassifyDevice(mixed))
	assert.Equal(t, "tablet", ClassifyDevice(ipadUA))
}

func TestClassifyDevice_Mobile(t *testing.T) {
	assert.Equal(t, "mobile", ClassifyDevice(iphoneUA))
}

func TestClassifyDevice_DesktopDefault(t *testing.T) {
	assert.Equal(t, "desktop", ClassifyDevice(chromeUA))
	assert.Equal(t, "desktop", ClassifyDevice(""))
}
