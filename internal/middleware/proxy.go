package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies installs an IP extractor that believes X-Real-IP and
// X-Forwarded-For only when the direct peer falls inside one of the given
// CIDRs. The per-IP rate limiter on the auth routes keys on c.RealIP(), so
// behind an untrusted extractor one proxy address would absorb every
// client's budget.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	var trusted []*net.IPNet
	for _, cidr := range trustedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		trusted = append(trusted, network)
	}

	e.IPExtractor = func(req *http.Request) string {
		peer := peerIP(req.RemoteAddr)
		if !inAny(peer, trusted) {
			return peer
		}
		if realIP := req.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			// Leftmost entry is the originating client.
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		return peer
	}
}

func peerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func inAny(ipStr string, networks []*net.IPNet) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, n := range networks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
