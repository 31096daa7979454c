package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-search/internal/metrics"
	"chat-search/internal/service"
)

// ChatHandler expone listado, detalle, búsqueda e historial de chats.
type ChatHandler struct {
	logger  *zap.Logger
	chats   *service.ChatQueryService
	metrics *metrics.Metrics
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, chats *service.ChatQueryService, m *metrics.Metrics) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{logger: logger, chats: chats, metrics: m}
}

// List maneja GET /api/chats.
func (h *ChatHandler) List(c *gin.Context) {
	page, err := service.ParsePage(c.Query("limit"), c.Query("offset"))
	if err != nil {
		respondError(c, h.logger, "list chats failed", err)
		return
	}
	out, err := h.chats.List(c.Request.Context(), c.Query("userId"), page)
	if err != nil {
		respondError(c, h.logger, "list chats failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Get maneja GET /api/chats/:id.
func (h *ChatHandler) Get(c *gin.Context) {
	chat, err := h.chats.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get chat failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// Search maneja GET /api/search.
func (h *ChatHandler) Search(c *gin.Context) {
	page, err := service.ParsePage(c.Query("limit"), c.Query("offset"))
	if err != nil {
		h.metrics.RecordSearch("invalid", 0)
		respondError(c, h.logger, "search chats failed", err)
		return
	}
	out, err := h.chats.Search(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		status := "error"
		if errors.Is(err, service.ErrValidation) {
			status = "invalid"
		}
		h.metrics.RecordSearch(status, 0)
		respondError(c, h.logger, "search chats failed", err)
		return
	}
	h.metrics.RecordSearch("ok", len(out.Chats))
	c.JSON(http.StatusOK, out)
}

// History maneja GET /api/history: los chats de la sesión actual.
func (h *ChatHandler) History(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	page, err := service.ParsePage(c.Query("limit"), c.Query("offset"))
	if err != nil {
		respondError(c, h.logger, "list history failed", err)
		return
	}
	out, err := h.chats.List(c.Request.Context(), claims.UserID, page)
	if err != nil {
		respondError(c, h.logger, "list history failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}
