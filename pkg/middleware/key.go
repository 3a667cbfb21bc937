package middleware

import "github.com/gin-gonic/gin"

// limiterKey prefers the authenticated subject (NAT-friendly) and falls back
// to the client IP.
func limiterKey(c *gin.Context) string {
	if p, ok := Principal(c); ok {
		return "sub:" + p.Subject
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
