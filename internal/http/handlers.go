package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-search/internal/db"
)

const pingTimeout = 2 * time.Second

// Pinger comprueba la conectividad con la base de datos.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MigrationStatusReader expone el estado de las migraciones.
type MigrationStatusReader interface {
	Status(ctx context.Context) ([]db.MigrationStatus, error)
}

// SearchIndexRefresher refresca la vista materializada de búsqueda.
type SearchIndexRefresher interface {
	RefreshSearchIndex(ctx context.Context) error
}

// Handlers agrupa los endpoints operativos: salud y depuración.
type Handlers struct {
	logger     *zap.Logger
	db         Pinger
	migrations MigrationStatusReader
	index      SearchIndexRefresher
}

// NewHandlers crea una instancia de Handlers. migrations e index pueden ser
// nil cuando las rutas de depuración están deshabilitadas.
func NewHandlers(logger *zap.Logger, pinger Pinger, migrations MigrationStatusReader, index SearchIndexRefresher) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		logger:     logger,
		db:         pinger,
		migrations: migrations,
		index:      index,
	}
}

// Ping maneja GET /ping.
func (h *Handlers) Ping(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("database ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DebugMigrations maneja GET /api/debug/migrations.
func (h *Handlers) DebugMigrations(c *gin.Context) {
	if h.migrations == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	status, err := h.migrations.Status(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "read migration status failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"migrations": status})
}

// DebugRefreshSearchIndex maneja POST /api/debug/search-index/refresh.
func (h *Handlers) DebugRefreshSearchIndex(c *gin.Context) {
	if h.index == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	start := time.Now()
	if err := h.index.RefreshSearchIndex(c.Request.Context()); err != nil {
		respondError(c, h.logger, "refresh search index failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed", "elapsedMs": time.Since(start).Milliseconds()})
}
