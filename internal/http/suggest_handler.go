package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-search/internal/service"
)

// SuggestHandler expone el autocompletado de prompts.
type SuggestHandler struct {
	logger      *zap.Logger
	suggestions *service.SuggestionService
}

func NewSuggestHandler(logger *zap.Logger, suggestions *service.SuggestionService) *SuggestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestHandler{logger: logger, suggestions: suggestions}
}

// Suggest maneja POST /api/autosuggest.
func (h *SuggestHandler) Suggest(c *gin.Context) {
	var req struct {
		Text           *string `json:"text"`
		ModelID        string  `json:"modelId"`
		MaxSuggestions int     `json:"maxSuggestions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid autosuggest request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Text == nil {
		respondError(c, h.logger, "autosuggest failed", service.ErrEmptyText)
		return
	}

	out, err := h.suggestions.Suggest(c.Request.Context(), *req.Text, req.ModelID, req.MaxSuggestions)
	if err != nil {
		respondError(c, h.logger, "autosuggest failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Starter maneja GET /api/autosuggest/starter. Un maxSuggestions no numérico
// usa el valor por defecto.
func (h *SuggestHandler) Starter(c *gin.Context) {
	max, err := strconv.Atoi(strings.TrimSpace(c.Query("maxSuggestions")))
	if err != nil {
		max = 0
	}
	c.JSON(http.StatusOK, h.suggestions.Starter(c.Request.Context(), c.Query("modelId"), max))
}
