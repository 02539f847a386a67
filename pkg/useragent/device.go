package useragent

import (
	"net"
	"net/http"
	"strings"
)

// ExtractDeviceInfo summarizes the User-Agent header into a short label
// suitable for the session history view ("Firefox 128 on Linux").
func ExtractDeviceInfo(r *http.Request) string {
	ua := r.Header.Get("User-Agent")
	if ua == "" {
		return "Unknown Device"
	}

	browser := detectBrowser(ua)
	os := detectOS(ua)

	if version := majorVersion(ua, browser); version != "" {
		return browser + " " + version + " on " + os
	}
	return browser + " on " + os
}

func detectBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "Edg/"):
		return "Edge"
	case strings.Contains(ua, "Chrome/"):
		return "Chrome"
	case strings.Contains(ua, "Firefox/"):
		return "Firefox"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	}
	return "Unknown Browser"
}

func detectOS(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Mac OS X"):
		return "macOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	}
	return "Unknown OS"
}

func majorVersion(ua, browser string) string {
	marker := browser + "/"
	idx := strings.Index(ua, marker)
	if idx == -1 {
		return ""
	}
	rest := ua[idx+len(marker):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	return rest[:end]
}

// ExtractIPAddress gets the client IP, honoring proxy headers.
func ExtractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the originating client
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
