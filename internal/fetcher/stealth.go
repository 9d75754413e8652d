package fetcher

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// browserProfile bundles the traits of one browser family. Mixing
// values across families (Chrome cipher ordering with a Firefox
// platform hint) is itself a detectable trait, so a profile is always
// applied whole.
type browserProfile struct {
	platform     string   // navigator.platform
	hintPlatform string   // Sec-Ch-Ua-Platform value
	hintBrands   string   // Sec-Ch-Ua value, empty for non-Chromium
	ciphers      []uint16 // TLS cipher ordering for this family
}

// Cipher orderings as sent by current Chrome and Firefox handshakes.
var (
	chromeCipherOrder = []uint16{
		tls.TLS_AES_128_GCM_SHA256,
		tls.TLS_AES_256_GCM_SHA384,
		tls.TLS_CHACHA20_POLY1305_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	}
	firefoxCipherOrder = []uint16{
		tls.TLS_AES_128_GCM_SHA256,
		tls.TLS_CHACHA20_POLY1305_SHA256,
		tls.TLS_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	}
)

const chromeBrands = `"Chromium";v="120", "Not?A_Brand";v="8", "Google Chrome";v="120"`

var browserProfiles = []browserProfile{
	{platform: "Win32", hintPlatform: `"Windows"`, hintBrands: chromeBrands, ciphers: chromeCipherOrder},
	{platform: "MacIntel", hintPlatform: `"macOS"`, hintBrands: chromeBrands, ciphers: chromeCipherOrder},
	{platform: "Linux x86_64", hintPlatform: `"Linux"`, ciphers: firefoxCipherOrder},
}

// Window sizes sampled from common desktop monitor resolutions.
var commonWindowSizes = []string{
	"1920,1080", "1366,768", "1536,864", "1440,900", "1280,720", "2560,1440",
}

// StealthConfig describes the identity a browser fetch presents to
// bot-hostile sites. Zero values leave the corresponding trait at the
// browser default.
type StealthConfig struct {
	// WindowSize is handed to the launcher as "width,height" and
	// doubles as the page viewport in headless mode.
	WindowSize string

	// UserDataDir points the browser at a persistent profile so repeat
	// visits carry cookies and local storage.
	UserDataDir string

	// Language and Platform are what navigator reports to page scripts.
	Language string
	Platform string

	// HardwareConcurrency and DeviceMemory are the core count and GB of
	// RAM the page sees. Headless defaults here are a known tell.
	HardwareConcurrency int
	DeviceMemory        int
}

// DefaultStealthConfig assembles a randomized desktop identity. Each
// call draws a fresh combination so repeated runs do not share a
// fingerprint.
func DefaultStealthConfig() *StealthConfig {
	prof := browserProfiles[rand.Intn(len(browserProfiles))]
	return &StealthConfig{
		WindowSize:          commonWindowSizes[rand.Intn(len(commonWindowSizes))],
		Language:            "en-US",
		Platform:            prof.platform,
		HardwareConcurrency: 4 + 2*rand.Intn(7), // even core counts, 4 to 16
		DeviceMemory:        8,
	}
}

// PatchJS returns the script injected into every new document before
// page scripts run. It papers over the navigator traits that headless
// Chromium leaks, using the values from this config.
func (sc *StealthConfig) PatchJS() string {
	return fmt.Sprintf(`(() => {
	const traits = {
		platform: '%s',
		language: '%s',
		languages: ['%s', 'en'],
		hardwareConcurrency: %d,
		deviceMemory: %d,
		webdriver: undefined,
	};
	const proto = Object.getPrototypeOf(navigator);
	for (const [name, value] of Object.entries(traits)) {
		try {
			Object.defineProperty(proto, name, { get: () => value, configurable: true });
		} catch (e) { /* locked-down trait, leave it */ }
	}

	if (!window.chrome) {
		window.chrome = { runtime: {}, loadTimes: () => ({}), csi: () => ({}) };
	}

	// Headless answers 'denied' for notifications without ever
	// prompting, which real desktops never do.
	const nativeQuery = navigator.permissions.query.bind(navigator.permissions);
	navigator.permissions.query = (desc) =>
		desc && desc.name === 'notifications'
			? Promise.resolve({ state: Notification.permission })
			: nativeQuery(desc);

	// An empty plugin list is another headless tell.
	if (navigator.plugins.length === 0) {
		Object.defineProperty(proto, 'plugins', {
			get: () => [
				{ name: 'PDF Viewer', filename: 'internal-pdf-viewer' },
				{ name: 'Chromium PDF Viewer', filename: 'internal-pdf-viewer' },
			],
		});
	}
})();`, sc.Platform, sc.Language, sc.Language, sc.HardwareConcurrency, sc.DeviceMemory)
}

// TLSTransport is an http.RoundTripper whose TLS handshake and default
// headers imitate one consistent desktop browser instead of Go's own
// client fingerprint. Search engines that score handshakes see the
// same identity on every request made through one transport.
type TLSTransport struct {
	profile browserProfile
	inner   *http.Transport
}

// NewTLSTransport picks a browser profile at random and builds a
// transport around it.
func NewTLSTransport(logger *slog.Logger) *TLSTransport {
	prof := browserProfiles[rand.Intn(len(browserProfiles))]
	logger.Debug("search transport ready", "profile", prof.platform)

	return &TLSTransport{
		profile: prof,
		inner: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig: &tls.Config{
				CipherSuites:     prof.ciphers,
				MinVersion:       tls.VersionTLS12,
				MaxVersion:       tls.VersionTLS13,
				CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256, tls.CurveP384},
			},
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 50,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// navigationHeaders are what a browser sends on a top-level page load.
var navigationHeaders = [...][2]string{
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"},
	{"Accept-Language", "en-US,en;q=0.9"},
	{"Upgrade-Insecure-Requests", "1"},
	{"Sec-Fetch-Dest", "document"},
	{"Sec-Fetch-Mode", "navigate"},
	{"Sec-Fetch-Site", "none"},
	{"Sec-Fetch-User", "?1"},
}

// RoundTrip fills in the headers a real browser always sends, then
// delegates to the underlying transport. Headers the caller already
// set win.
func (t *TLSTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for _, h := range navigationHeaders {
		if req.Header.Get(h[0]) == "" {
			req.Header.Set(h[0], h[1])
		}
	}
	if t.profile.hintBrands != "" && req.Header.Get("Sec-Ch-Ua") == "" {
		req.Header.Set("Sec-Ch-Ua", t.profile.hintBrands)
		req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
		req.Header.Set("Sec-Ch-Ua-Platform", t.profile.hintPlatform)
	}
	return t.inner.RoundTrip(req)
}
