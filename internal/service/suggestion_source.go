package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"chat-search/internal/domain"
	"chat-search/internal/llm"
)

// SuggestionSource produce sugerencias crudas. El servicio se encarga de
// validar la entrada, limitar la cantidad y degradar ante errores.
type SuggestionSource interface {
	Name() string
	Suggest(ctx context.Context, text, model string, max int) ([]domain.Suggestion, error)
	Starter(ctx context.Context, model string, max int) ([]domain.Suggestion, error)
}

var errUnparseableSuggestions = errors.New("llm suggestions response not parseable")

type mockEntry struct {
	text     string
	category domain.SuggestionCategory
}

var mockDataset = []mockEntry{
	{"help me write a cover letter", domain.CategoryCompletion},
	{"help me debug this code", domain.CategoryCompletion},
	{"help me plan a trip", domain.CategoryCompletion},
	{"how do I center a div in css?", domain.CategoryQuestion},
	{"how does binary search work?", domain.CategoryQuestion},
	{"how to write a unit test in go", domain.CategoryQuestion},
	{"what are the benefits of meditation?", domain.CategoryQuestion},
	{"what is the difference between tcp and udp?", domain.CategoryQuestion},
	{"explain how to use git rebase", domain.CategoryCompletion},
	{"explain how javascript closures work", domain.CategoryCompletion},
	{"create a react component", domain.CategoryCommand},
	{"create a sql query that joins two tables", domain.CategoryCommand},
	{"summarize this article", domain.CategoryCommand},
	{"translate this text to spanish", domain.CategoryCommand},
	{"tell me about the history of rome", domain.CategoryCompletion},
	{"tell me a joke", domain.CategoryCompletion},
	{"write a python script to rename files", domain.CategoryCommand},
	{"write a haiku about autumn", domain.CategoryCommand},
}

var mockStarters = []domain.Suggestion{
	{ID: "starter-1", Text: "help me write", Category: domain.CategoryCompletion, Confidence: 0.9},
	{ID: "starter-2", Text: "how do I", Category: domain.CategoryQuestion, Confidence: 0.85},
	{ID: "starter-3", Text: "explain how", Category: domain.CategoryCompletion, Confidence: 0.8},
	{ID: "starter-4", Text: "create a", Category: domain.CategoryCommand, Confidence: 0.75},
	{ID: "starter-5", Text: "what is the difference between", Category: domain.CategoryQuestion, Confidence: 0.7},
	{ID: "starter-6", Text: "summarize", Category: domain.CategoryCommand, Confidence: 0.65},
	{ID: "starter-7", Text: "tell me about", Category: domain.CategoryCompletion, Confidence: 0.6},
}

// MockSuggestionSource responde desde un dataset estático. Coincidencia por
// prefijo pesa 0.9 y por subcadena 0.7.
type MockSuggestionSource struct{}

func NewMockSuggestionSource() *MockSuggestionSource { return &MockSuggestionSource{} }

func (MockSuggestionSource) Name() string { return "mock" }

func (MockSuggestionSource) Suggest(ctx context.Context, text, _ string, max int) ([]domain.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(text))
	var out []domain.Suggestion
	for i, e := range mockDataset {
		var confidence float64
		switch {
		case strings.HasPrefix(e.text, q):
			confidence = 0.9
		case strings.Contains(e.text, q):
			confidence = 0.7
		default:
			continue
		}
		out = append(out, domain.Suggestion{
			ID:         fmt.Sprintf("mock-%d", i+1),
			Text:       e.text,
			Category:   e.category,
			Confidence: confidence,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return truncateSuggestions(out, max), nil
}

func (MockSuggestionSource) Starter(ctx context.Context, _ string, max int) ([]domain.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return truncateSuggestions(append([]domain.Suggestion(nil), mockStarters...), max), nil
}

const suggestSystemPrompt = `You generate autocomplete suggestions for a chat input box.
Respond ONLY with a JSON object of the form:
{"suggestions":[{"text":"...","category":"completion|question|command","confidence":0.0}]}
confidence is a number between 0 and 1. Keep each text under 80 characters.`

// LLMSuggestionSource pide las sugerencias al proveedor de lenguaje.
type LLMSuggestionSource struct {
	client llm.LLMClient
}

func NewLLMSuggestionSource(client llm.LLMClient) *LLMSuggestionSource {
	return &LLMSuggestionSource{client: client}
}

func (s *LLMSuggestionSource) Name() string { return "llm" }

func (s *LLMSuggestionSource) Suggest(ctx context.Context, text, model string, max int) ([]domain.Suggestion, error) {
	prompt := fmt.Sprintf("Suggest up to %d ways to complete or continue this partially typed message: %q", max, text)
	return s.generate(ctx, prompt, model, max)
}

func (s *LLMSuggestionSource) Starter(ctx context.Context, model string, max int) ([]domain.Suggestion, error) {
	prompt := fmt.Sprintf("Suggest %d short conversation starters for a user who has not typed anything yet.", max)
	return s.generate(ctx, prompt, model, max)
}

func (s *LLMSuggestionSource) generate(ctx context.Context, prompt, model string, max int) ([]domain.Suggestion, error) {
	raw, err := s.client.Generate(ctx, prompt,
		llm.WithModel(model),
		llm.WithSystemPrompt(suggestSystemPrompt),
		llm.WithTemperature(0.3),
	)
	if err != nil {
		return nil, fmt.Errorf("llm generate: %w", err)
	}
	return parseSuggestions(raw, max)
}

// parseSuggestions acepta {"suggestions":[...]} o un arreglo suelto y
// normaliza cada sugerencia:
// categoría desconocida => completion, confianza acotada a [0,1], textos
// vacíos o repetidos descartados.
func parseSuggestions(raw string, max int) ([]domain.Suggestion, error) {
	candidate := extractLLMJSON(raw)
	if candidate == "" {
		return nil, errUnparseableSuggestions
	}

	type rawSuggestion struct {
		Text       string   `json:"text"`
		Category   string   `json:"category"`
		Confidence *float64 `json:"confidence"`
	}
	var payload struct {
		Suggestions []rawSuggestion `json:"suggestions"`
	}
	var err error
	if strings.HasPrefix(candidate, "[") {
		err = json.Unmarshal([]byte(candidate), &payload.Suggestions)
	} else {
		err = json.Unmarshal([]byte(candidate), &payload)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnparseableSuggestions, err)
	}

	seen := make(map[string]bool)
	out := make([]domain.Suggestion, 0, len(payload.Suggestions))
	for _, item := range payload.Suggestions {
		text := strings.TrimSpace(item.Text)
		key := strings.ToLower(text)
		if text == "" || seen[key] {
			continue
		}
		seen[key] = true

		confidence := 0.5
		if item.Confidence != nil {
			confidence = clampConfidence(*item.Confidence)
		}
		out = append(out, domain.Suggestion{
			ID:         uuid.NewString(),
			Text:       text,
			Category:   domain.ParseSuggestionCategory(strings.ToLower(strings.TrimSpace(item.Category))),
			Confidence: confidence,
		})
	}
	return truncateSuggestions(out, max), nil
}

func clampConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func truncateSuggestions(in []domain.Suggestion, max int) []domain.Suggestion {
	if max >= 0 && len(in) > max {
		return in[:max]
	}
	return in
}
