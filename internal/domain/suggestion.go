package domain

// SuggestionCategory clasifica una sugerencia.
type SuggestionCategory string

const (
	CategoryCompletion SuggestionCategory = "completion"
	CategoryQuestion   SuggestionCategory = "question"
	CategoryCommand    SuggestionCategory = "command"
)

// ParseSuggestionCategory normaliza la categoría; valores desconocidos caen en completion.
func ParseSuggestionCategory(raw string) SuggestionCategory {
	switch SuggestionCategory(raw) {
	case CategoryQuestion:
		return CategoryQuestion
	case CategoryCommand:
		return CategoryCommand
	default:
		return CategoryCompletion
	}
}

// Suggestion es efímera: se calcula por request y nunca se persiste.
type Suggestion struct {
	ID         string             `json:"id"`
	Text       string             `json:"text"`
	Category   SuggestionCategory `json:"category"`
	Confidence float64            `json:"confidence"`
}
