package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/tokenauth/internal/sessions"
)

// HealthHandler serves liveness and readiness
type HealthHandler struct {
	store   sessions.Store
	members bool
	started time.Time
	timeout time.Duration
}

// NewHealthHandler reports ready when store is set and answers a ping, and
// members is true.
func NewHealthHandler(store sessions.Store, members bool) *HealthHandler {
	return &HealthHandler{store: store, members: members, started: time.Now(), timeout: 2 * time.Second}
}

func (h *HealthHandler) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.String(http.StatusOK, "healthy")
}

// Ready returns 200 only when critical dependencies are available
func (h *HealthHandler) Ready(c *gin.Context) {
	deps := map[string]bool{"sessions": h.store != nil, "users": h.members}
	if p, ok := h.store.(sessions.Pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		deps["sessions"] = p.Ping(ctx) == nil
		cancel()
	}

	ready := true
	for _, ok := range deps {
		ready = ready && ok
	}
	uptime := time.Since(h.started).Round(time.Second).String()
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
}
