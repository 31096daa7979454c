package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"chat-search/internal/metrics"
	"chat-search/internal/service"
)

const (
	authClaimsKey      = "auth_claims"
	sessionCookieName  = "session_token"
	refreshCookieName  = "refresh_token"
	guestSessionPath   = "/api/auth/guest"
	redirectQueryParam = "redirectUrl"
)

var baseBypassPrefixes = []string{
	"/ping",
	"/api/auth",
	"/api/history",
	"/api/debug",
	"/api/autosuggest",
	"/api/game",
	"/db-viewer",
}

var publicReadPrefixes = []string{"/api/chat", "/api/search"}

// GateConfig configura el AccessGate.
type GateConfig struct {
	// PublicChatRead deja /api/chat* y /api/search fuera del gate.
	PublicChatRead bool
}

func (g GateConfig) bypassPrefixes() []string {
	out := append([]string(nil), baseBypassPrefixes...)
	if g.PublicChatRead {
		out = append(out, publicReadPrefixes...)
	}
	return out
}

// AccessGate decide por request si se deja pasar, se redirige a crear una
// sesión de invitado o se saca a un usuario registrado de /login y /register.
// Cuando hay un token válido sus claims quedan en el contexto, también en
// rutas exentas, para que los handlers puedan leer la sesión.
func AccessGate(cfg GateConfig, jwtSvc *service.JWTService, m *metrics.Metrics) gin.HandlerFunc {
	bypass := cfg.bypassPrefixes()
	return func(c *gin.Context) {
		claims, hasSession := resolveSession(c, jwtSvc)
		if hasSession {
			c.Set(authClaimsKey, claims)
		}

		path := c.Request.URL.Path
		if hasAnyPrefix(path, bypass) {
			m.RecordGateDecision("bypass")
			c.Next()
			return
		}

		if !hasSession {
			if path == "/game" {
				m.RecordGateDecision("allow")
				c.Next()
				return
			}
			m.RecordGateDecision("guest_redirect")
			target := guestSessionPath + "?" + redirectQueryParam + "=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusTemporaryRedirect, target)
			c.Abort()
			return
		}

		if !claims.Guest && (path == "/login" || path == "/register") {
			m.RecordGateDecision("home_redirect")
			c.Redirect(http.StatusTemporaryRedirect, "/")
			c.Abort()
			return
		}

		m.RecordGateDecision("allow")
		c.Next()
	}
}

// resolveSession busca el token en la cookie de sesión y luego en el header
// Authorization. Un token inválido o vencido cuenta como ausente.
func resolveSession(c *gin.Context, jwtSvc *service.JWTService) (service.Claims, bool) {
	if jwtSvc == nil {
		return service.Claims{}, false
	}
	token := sessionToken(c)
	if token == "" {
		return service.Claims{}, false
	}
	claims, err := jwtSvc.ParseAccessToken(token)
	if err != nil {
		return service.Claims{}, false
	}
	return claims, true
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > len("bearer ") && strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	return ""
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}
