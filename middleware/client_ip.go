package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientIP keys rate limits and access logs. It prefers the first parseable
// X-Forwarded-For hop, then X-Real-IP, then the socket peer. Unparseable
// header values are skipped.
func clientIP(c *gin.Context) string {
	for _, hop := range strings.Split(c.GetHeader("X-Forwarded-For"), ",") {
		if ip := parseIP(hop); ip != "" {
			return ip
		}
	}
	if ip := parseIP(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := parseIP(c.Request.RemoteAddr); ip != "" {
		return ip
	}
	return c.Request.RemoteAddr
}

// parseIP normalizes "ip", "ip:port" and "[v6]:port" forms. It returns ""
// for anything that is not an address.
func parseIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	ip := net.ParseIP(strings.Trim(raw, "[]"))
	if ip == nil {
		return ""
	}
	return ip.String()
}
