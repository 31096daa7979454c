package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-search/internal/service"
)

// respondError traduce errores de servicio a status HTTP. Los errores internos
// se loguean con detalle y el cliente solo recibe un mensaje genérico.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": publicMessage(err, service.ErrValidation)})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": publicMessage(err, service.ErrNotFound)})
	default:
		logger.Error(op, zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// publicMessage quita el prefijo del sentinel base ("validation failed: ...").
func publicMessage(err, base error) string {
	msg := err.Error()
	if trimmed := strings.TrimPrefix(msg, base.Error()+": "); trimmed != "" {
		return trimmed
	}
	return msg
}
