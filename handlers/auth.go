package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/tokenauth/internal/auth"
	"github.com/gogotex/tokenauth/internal/password"
	"github.com/gogotex/tokenauth/internal/users"
	"github.com/gogotex/tokenauth/pkg/logger"
	"github.com/gogotex/tokenauth/pkg/middleware"
)

// RefreshHeader carries the refresh token on POST /auth/refresh.
const RefreshHeader = "X-Refresh-Token"

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest is the body of PUT /auth/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	svc     *auth.Service
	limiter gin.HandlerFunc
}

// NewAuthHandler wires the account flows. limiter guards the credential
// endpoints and may be nil.
func NewAuthHandler(svc *auth.Service, limiter gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{svc: svc, limiter: limiter}
}

// Register mounts /auth/* and /api/v1/me. The router must already run
// middleware.Authenticate so authenticated routes see the request identity.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/signup", h.credential(h.Signup)...)
	a.POST("/login", h.credential(h.Login)...)
	a.POST("/refresh", middleware.RequireIdentity(), h.Refresh)
	a.POST("/logout", middleware.RequireIdentity(), h.Logout)
	a.PUT("/password", middleware.RequireIdentity(), h.ChangePassword)

	rg.Group("/api/v1").GET("/me", middleware.RequireIdentity(), h.Me)
}

func (h *AuthHandler) credential(fn gin.HandlerFunc) []gin.HandlerFunc {
	if h.limiter == nil {
		return []gin.HandlerFunc{fn}
	}
	return []gin.HandlerFunc{h.limiter, fn}
}

// Signup registers a member and returns its first token pair
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pair, err := h.svc.Signup(c.Request.Context(), users.NewMember{
		Username: req.Username,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pair)
}

// Login exchanges username and password for a token pair
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Refresh rotates the caller's refresh token. The subject comes from the
// verified access token, the refresh token from X-Refresh-Token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	p, _ := middleware.Principal(c)
	rt := c.GetHeader(RefreshHeader)
	if rt == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrRefreshInvalid.Error()})
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), p.Subject, rt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout ends the caller's session. Outstanding access tokens remain valid
// until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	p, _ := middleware.Principal(c)
	if err := h.svc.Logout(c.Request.Context(), p.Subject); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangePassword replaces the caller's password and ends their session
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, _ := middleware.Principal(c)
	if err := h.svc.ChangePassword(c.Request.Context(), p.Subject, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the request identity as carried by the access token
func (h *AuthHandler) Me(c *gin.Context) {
	p, _ := middleware.Principal(c)
	c.JSON(http.StatusOK, gin.H{"subject": p.Subject, "claims": p.Claims})
}

// writeError maps service errors to status codes. Rotation failures all
// produce the same body.
func writeError(c *gin.Context, err error) {
	var ve *users.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, password.ErrTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrDuplicateIdentity):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
	case errors.Is(err, auth.ErrRefreshInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrRefreshInvalid.Error()})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
