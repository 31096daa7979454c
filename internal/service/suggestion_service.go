package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"chat-search/internal/domain"
	"chat-search/internal/metrics"
)

const (
	DefaultMaxSuggestions = 5
	MaxSuggestionsCap     = 10
	// MinSuggestInputLength es el largo mínimo (en runas, ya recortado) para consultar la fuente.
	MinSuggestInputLength = 3
)

// FallbackStarterSuggestions se devuelven cuando la fuente falla al pedir
// sugerencias iniciales.
var FallbackStarterSuggestions = []domain.Suggestion{
	{ID: "fallback-1", Text: "help me with", Category: domain.CategoryCompletion, Confidence: 0.9},
	{ID: "fallback-2", Text: "what are the benefits of", Category: domain.CategoryQuestion, Confidence: 0.8},
	{ID: "fallback-3", Text: "explain how to", Category: domain.CategoryCompletion, Confidence: 0.8},
	{ID: "fallback-4", Text: "create a", Category: domain.CategoryCommand, Confidence: 0.7},
	{ID: "fallback-5", Text: "tell me about", Category: domain.CategoryCompletion, Confidence: 0.7},
}

type SuggestionResult struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	Query       *string             `json:"query,omitempty"`
	Model       string              `json:"model"`
	Timestamp   time.Time           `json:"timestamp"`
}

// SuggestionService aplica las reglas de autocompletado sobre una fuente.
// Los errores de la fuente nunca llegan al cliente.
type SuggestionService struct {
	logger       *zap.Logger
	source       SuggestionSource
	defaultModel string
	cache        StarterCache
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewSuggestionService(logger *zap.Logger, source SuggestionSource, defaultModel string, cache StarterCache, m *metrics.Metrics) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if source == nil {
		source = NewMockSuggestionSource()
	}
	return &SuggestionService{
		logger:       logger,
		source:       source,
		defaultModel: defaultModel,
		cache:        cache,
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeMaxSuggestions aplica el valor por defecto y el tope.
func NormalizeMaxSuggestions(n int) int {
	if n <= 0 {
		return DefaultMaxSuggestions
	}
	return min(n, MaxSuggestionsCap)
}

func (s *SuggestionService) model(modelID string) string {
	if m := strings.TrimSpace(modelID); m != "" {
		return m
	}
	return s.defaultModel
}

// Suggest devuelve como mucho maxSuggestions sugerencias para text. Texto vacío
// es un error de validación; menos de 3 caracteres devuelve lista vacía.
func (s *SuggestionService) Suggest(ctx context.Context, text, modelID string, maxSuggestions int) (SuggestionResult, error) {
	if text == "" {
		return SuggestionResult{}, ErrEmptyText
	}
	model := s.model(modelID)
	max := NormalizeMaxSuggestions(maxSuggestions)
	result := SuggestionResult{
		Suggestions: []domain.Suggestion{},
		Query:       &text,
		Model:       model,
		Timestamp:   s.now(),
	}

	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < MinSuggestInputLength {
		return result, nil
	}

	s.metrics.RecordSuggestion("suggest", s.source.Name())
	suggestions, err := s.source.Suggest(ctx, trimmed, model, max)
	if err != nil {
		s.logger.Warn("suggestion source failed",
			zap.String("source", s.source.Name()),
			zap.String("model", model),
			zap.Error(err),
		)
		s.metrics.RecordSuggestionFallback("suggest")
		return result, nil
	}
	result.Suggestions = sanitize(suggestions, max)
	return result, nil
}

// Starter devuelve sugerencias iniciales. Ante un fallo de la fuente devuelve
// la lista fija recortada a maxSuggestions; esa lista nunca se cachea. Solo el
// modelo por defecto pasa por la caché: modelId llega del cliente y no debe
// definir claves de Redis.
func (s *SuggestionService) Starter(ctx context.Context, modelID string, maxSuggestions int) SuggestionResult {
	model := s.model(modelID)
	max := NormalizeMaxSuggestions(maxSuggestions)
	result := SuggestionResult{Model: model, Timestamp: s.now()}
	cacheable := s.cache != nil && model == s.defaultModel

	if cacheable {
		cached, ok, err := s.cache.Get(ctx, model, max)
		switch {
		case err != nil:
			s.logger.Debug("starter cache read failed", zap.Error(err))
			s.metrics.RecordStarterCache("error")
		case ok:
			s.metrics.RecordStarterCache("hit")
			result.Suggestions = sanitize(cached, max)
			return result
		default:
			s.metrics.RecordStarterCache("miss")
		}
	}

	s.metrics.RecordSuggestion("starter", s.source.Name())
	suggestions, err := s.source.Starter(ctx, model, max)
	if err == nil {
		suggestions = sanitize(suggestions, max)
	}
	if err != nil || len(suggestions) == 0 {
		if err != nil {
			s.logger.Warn("starter suggestions failed, using fallback",
				zap.String("source", s.source.Name()),
				zap.String("model", model),
				zap.Error(err),
			)
		}
		s.metrics.RecordSuggestionFallback("starter")
		result.Suggestions = truncateSuggestions(append([]domain.Suggestion(nil), FallbackStarterSuggestions...), max)
		return result
	}

	if cacheable {
		if err := s.cache.Set(ctx, model, max, suggestions); err != nil {
			s.logger.Debug("starter cache write failed", zap.Error(err))
		}
	}
	result.Suggestions = suggestions
	return result
}

func sanitize(in []domain.Suggestion, max int) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, len(in))
	for _, sg := range in {
		if strings.TrimSpace(sg.Text) == "" {
			continue
		}
		sg.Confidence = clampConfidence(sg.Confidence)
		sg.Category = domain.ParseSuggestionCategory(string(sg.Category))
		out = append(out, sg)
	}
	return truncateSuggestions(out, max)
}
