// Package search contiene la normalización de consultas y la fórmula de
// relevancia de los resultados de búsqueda de chats. La misma fórmula vive en
// SQL como chat_relevance_score (migración 0002) y ambas deben mantenerse iguales.
package search

import (
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"chat-search/internal/domain"
)

// MinQueryLength es la longitud mínima (en runas) de una consulta válida.
const MinQueryLength = 2

var ErrQueryTooShort = errors.New("search query must be at least 2 characters")

// NormalizeQuery recorta y pasa a minúsculas la consulta.
func NormalizeQuery(raw string) (string, error) {
	q := strings.ToLower(strings.TrimSpace(raw))
	if utf8.RuneCountInString(q) < MinQueryLength {
		return "", ErrQueryTooShort
	}
	return q, nil
}

// Contains compara sin distinguir mayúsculas; query ya viene normalizada.
func Contains(text, query string) bool {
	return strings.Contains(strings.ToLower(text), query)
}

// Puntajes de Relevance. chat_relevance_score (migración 0002) usa los mismos
// valores en el mismo orden de ramas.
const (
	ScoreTitleContains = 3
	ScoreTitlePrefix   = 2
	ScoreBase          = 1
	ScoreMessageMatch  = 2
)

// Relevance reproduce la heurística histórica:
// título contiene la consulta => 3; título empieza con la consulta => 2; si no => 1;
// y +2 si algún mensaje contiene la consulta. La rama "empieza con" queda
// cubierta por "contiene" y se conserva por compatibilidad con la versión SQL.
func Relevance(title, query string, messageMatch bool) int {
	lower := strings.ToLower(title)
	score := ScoreBase
	switch {
	case strings.Contains(lower, query):
		score = ScoreTitleContains
	case strings.HasPrefix(lower, query):
		score = ScoreTitlePrefix
	}
	if messageMatch {
		score += ScoreMessageMatch
	}
	return score
}

// Sort ordena por relevancia descendente y, en empate, por fecha de creación descendente.
func Sort(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
}
