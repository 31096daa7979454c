package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-search/internal/metrics"
	"chat-search/internal/service"
)

// RouterConfig reúne handlers y opciones del router.
type RouterConfig struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	JWT            *service.JWTService
	Gate           GateConfig
	CORSOrigins    []string
	DebugEndpoints bool

	Chats    *ChatHandler
	Suggest  *SuggestHandler
	Auth     *AuthHandler
	Handlers *Handlers
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()

	r.Use(
		zapLoggerMiddleware(logger),
		gin.Recovery(),
		corsMiddleware(cfg.CORSOrigins),
		metricsMiddleware(cfg.Metrics),
		AccessGate(cfg.Gate, cfg.JWT, cfg.Metrics),
	)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	r.GET("/ping", cfg.Handlers.Ping)

	api := r.Group("/api", jsonContentTypeMiddleware())
	api.GET("/chats", cfg.Chats.List)
	api.GET("/chats/:id", cfg.Chats.Get)
	api.GET("/search", cfg.Chats.Search)
	api.GET("/history", cfg.Chats.History)

	api.POST("/autosuggest", cfg.Suggest.Suggest)
	api.GET("/autosuggest/starter", cfg.Suggest.Starter)

	auth := r.Group("/api/auth")
	auth.GET("/guest", cfg.Auth.Guest)
	auth.POST("/register", cfg.Auth.Register)
	auth.POST("/login", cfg.Auth.Login)
	auth.POST("/refresh", cfg.Auth.RefreshToken)
	auth.POST("/logout", cfg.Auth.Logout)

	if cfg.DebugEndpoints {
		debug := api.Group("/debug")
		debug.GET("/migrations", cfg.Handlers.DebugMigrations)
		debug.POST("/search-index/refresh", cfg.Handlers.DebugRefreshSearchIndex)
	}

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// metricsMiddleware usa la ruta registrada como label para no explotar la
// cardinalidad con ids.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

