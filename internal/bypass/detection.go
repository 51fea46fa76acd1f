package bypass

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"
)

// Page is the part of an HTTP exchange the detectors look at.
type Page struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Detector examines a page to determine if a bot protection mechanism
// blocked or challenged the request.
type Detector func(p Page) (detected bool, source string)

// DefaultDetectors returns the CDN-level bot protection detectors plus the
// search engine challenge pages.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
		detectDuckDuckGo,
		detectBing,
	}
}

// Analyze runs the page through the detectors and reports the first hit.
func Analyze(p Page, detectors []Detector) (bool, string) {
	for _, d := range detectors {
		if detected, source := d(p); detected {
			return true, source
		}
	}
	return false, ""
}

func getHeader(h http.Header, key string) string {
	if h == nil {
		return ""
	}
	if v := h.Get(key); v != "" {
		return v
	}
	// Headers built by hand may not be canonicalized.
	lowerKey := strings.ToLower(key)
	for k, vals := range h {
		if strings.ToLower(k) == lowerKey && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func detectCloudflare(p Page) (bool, string) {
	if p.StatusCode == http.StatusForbidden || p.StatusCode == http.StatusServiceUnavailable {
		server := strings.ToLower(getHeader(p.Header, "Server"))
		if strings.Contains(server, "cloudflare") {
			return true, "Cloudflare"
		}

		if bytes.Contains(p.Body, []byte("cf-browser-verification")) ||
			bytes.Contains(p.Body, []byte("cloudflare-nginx")) ||
			bytes.Contains(p.Body, []byte("cf-turnstile")) ||
			bytes.Contains(p.Body, []byte("Attention Required! | Cloudflare")) {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

func detectAkamai(p Page) (bool, string) {
	if p.StatusCode == http.StatusForbidden {
		server := strings.ToLower(getHeader(p.Header, "Server"))
		if strings.Contains(server, "akamai") {
			return true, "Akamai"
		}

		if bytes.Contains(p.Body, []byte("Reference #")) && bytes.Contains(p.Body, []byte("Access Denied")) {
			return true, "Akamai"
		}
	}
	return false, ""
}

func detectDataDome(p Page) (bool, string) {
	if p.StatusCode == http.StatusForbidden {
		server := strings.ToLower(getHeader(p.Header, "Server"))
		if strings.Contains(server, "datadome") {
			return true, "DataDome"
		}

		if getHeader(p.Header, "X-DataDome") != "" || getHeader(p.Header, "X-DataDome-Response") != "" {
			return true, "DataDome"
		}

		if bytes.Contains(p.Body, []byte("geo.captcha-delivery.com")) || bytes.Contains(p.Body, []byte("datadome")) {
			return true, "DataDome"
		}
	}
	return false, ""
}

func detectPerimeterX(p Page) (bool, string) {
	if p.StatusCode == http.StatusForbidden {
		if getHeader(p.Header, "X-Px-Captcha") != "" {
			return true, "PerimeterX"
		}

		if bytes.Contains(p.Body, []byte("client.perimeterx.net")) ||
			bytes.Contains(p.Body, []byte("px-captcha")) ||
			bytes.Contains(p.Body, []byte("_pxBlock")) {
			return true, "PerimeterX"
		}
	}
	return false, ""
}

// onHost reports whether rawURL points at domain or one of its subdomains.
func onHost(rawURL, domain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// detectDuckDuckGo flags the anomaly page the HTML endpoint serves to
// clients it considers automated. It comes back with 200 or 202.
func detectDuckDuckGo(p Page) (bool, string) {
	if !onHost(p.URL, "duckduckgo.com") {
		return false, ""
	}
	if bytes.Contains(p.Body, []byte("anomaly-modal")) ||
		bytes.Contains(p.Body, []byte("/anomaly.js")) ||
		bytes.Contains(p.Body, []byte("bots use DuckDuckGo too")) {
		return true, "DuckDuckGo"
	}
	return false, ""
}

// detectBing flags the Bing captcha interstitial. Only bing.com responses
// are checked; articles quoting the markup are not challenges.
func detectBing(p Page) (bool, string) {
	if !onHost(p.URL, "bing.com") {
		return false, ""
	}
	if u, err := url.Parse(p.URL); err == nil &&
		(strings.HasPrefix(u.Path, "/challenge") || strings.HasPrefix(u.Path, "/captcha")) {
		return true, "Bing"
	}
	if bytes.Contains(p.Body, []byte("b_captcha")) ||
		bytes.Contains(p.Body, []byte("/challenge/verify")) {
		return true, "Bing"
	}
	return false, ""
}
