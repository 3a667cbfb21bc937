package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/tokenauth/internal/identity"
	"github.com/gogotex/tokenauth/internal/tokens"
	"github.com/gogotex/tokenauth/pkg/logger"
	"github.com/gogotex/tokenauth/pkg/metrics"
)

// Verifier is the part of the token codec the gate depends on
type Verifier interface {
	IsExpired(raw string) bool
	Verify(raw string) (*tokens.Payload, error)
}

// Authenticate returns a Gin middleware that turns a valid Bearer access
// token into a request identity. It never aborts: a missing, expired, forged
// or otherwise unusable token leaves the request anonymous and access
// decisions are left to RequireIdentity or the handler.
func Authenticate(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			metrics.GateTotal.WithLabelValues("anonymous").Inc()
			c.Next()
			return
		}
		if ver.IsExpired(raw) {
			metrics.GateTotal.WithLabelValues("rejected").Inc()
			c.Next()
			return
		}
		p, err := ver.Verify(raw)
		if err != nil {
			logger.Debugf("gate: token rejected: %v", err)
			metrics.GateTotal.WithLabelValues("rejected").Inc()
			c.Next()
			return
		}
		if p.Type() == tokens.TypeRefresh {
			logger.Debugf("gate: refresh token presented as access token sub=%s", p.Subject)
			metrics.GateTotal.WithLabelValues("rejected").Inc()
			c.Next()
			return
		}

		principal := identity.Principal{Subject: p.Subject, Claims: p.Claims}
		c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), principal))
		metrics.GateTotal.WithLabelValues("authenticated").Inc()
		c.Next()
	}
}

// RequireIdentity aborts with 401 unless Authenticate established an identity.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identity.FromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// Principal returns the request identity, if any.
func Principal(c *gin.Context) (identity.Principal, bool) {
	return identity.FromContext(c.Request.Context())
}

// bearerToken extracts the credential from "Bearer <token>"; the scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
