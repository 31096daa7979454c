package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-search/internal/domain"
	"chat-search/internal/service"
)

// AuthHandler maneja sesiones de invitado, registro, login y tokens.
type AuthHandler struct {
	logger        *zap.Logger
	userServ      *service.UserService
	jwtServ       *service.JWTService
	secureCookies bool
}

// NewAuthHandler crea una instancia de AuthHandler.
func NewAuthHandler(logger *zap.Logger, userServ *service.UserService, jwtServ *service.JWTService, secureCookies bool) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		logger:        logger,
		userServ:      userServ,
		jwtServ:       jwtServ,
		secureCookies: secureCookies,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Guest maneja GET /api/auth/guest: crea un invitado, deja la sesión en
// cookies y redirige a redirectUrl.
func (h *AuthHandler) Guest(c *gin.Context) {
	target := safeRedirectTarget(c.Query(redirectQueryParam))

	user, err := h.userServ.CreateGuest(c.Request.Context())
	if err != nil {
		h.logger.Error("create guest failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create guest session"})
		return
	}
	tokens, err := h.issueTokens(user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	h.setSessionCookies(c, tokens)
	c.Redirect(http.StatusFound, target)
}

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.userServ.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		respondError(c, h.logger, "register failed", err)
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	h.setSessionCookies(c, tokens)
	c.JSON(http.StatusCreated, gin.H{"user": user, "tokens": tokens})
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
		}
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	h.setSessionCookies(c, tokens)
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": tokens})
}

// RefreshToken maneja POST /api/auth/refresh. El refresh token puede venir en
// el body o en la cookie.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token := h.refreshTokenFrom(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.jwtServ == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	tokens, err := h.jwtServ.RefreshPair(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	h.setSessionCookies(c, tokens)
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout maneja POST /api/auth/logout. Es idempotente: siempre limpia cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := h.refreshTokenFrom(c); token != "" && h.jwtServ != nil {
		if err := h.jwtServ.RevokeRefresh(token); err != nil {
			h.logger.Debug("revoke refresh failed", zap.Error(err))
		}
	}
	h.clearSessionCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if token := strings.TrimSpace(req.RefreshToken); token != "" {
		return token
	}
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func (h *AuthHandler) issueTokens(user domain.User) (service.TokenPair, error) {
	if h.jwtServ == nil {
		return service.TokenPair{}, errors.New("jwt not configured")
	}
	return h.jwtServ.GeneratePair(user)
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, tokens service.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, tokens.AccessToken, seconds(h.jwtServ.AccessTTL()), "/", "", h.secureCookies, true)
	c.SetCookie(refreshCookieName, tokens.RefreshToken, seconds(h.jwtServ.RefreshTTL()), "/api/auth", "", h.secureCookies, true)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", h.secureCookies, true)
	c.SetCookie(refreshCookieName, "", -1, "/api/auth", "", h.secureCookies, true)
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

// safeRedirectTarget solo acepta rutas relativas del mismo origen. Cualquier
// otra cosa, o una vuelta al propio endpoint de invitado, redirige a "/".
func safeRedirectTarget(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	if strings.HasPrefix(u.Path, guestSessionPath) {
		return "/"
	}
	return raw
}
