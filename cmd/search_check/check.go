package main

import (
	"fmt"
	"strings"

	"chat-search/internal/domain"
)

// Scenario es una consulta con el resultado esperado.
type Scenario struct {
	Name        string
	Query       string
	ExpectedIDs []string
	// ExpectedTop es la relevancia esperada del primer resultado; 0 no la comprueba.
	ExpectedTop int
	ExpectError bool
}

// verdict resume la comparación entre lo esperado y lo obtenido.
type verdict struct {
	Passed  bool
	Reasons []string
}

func evaluate(sc Scenario, results []domain.SearchResult, searchErr error) verdict {
	var v verdict
	if sc.ExpectError {
		if searchErr == nil {
			v.Reasons = append(v.Reasons, "se esperaba un error de validación")
		}
		v.Passed = len(v.Reasons) == 0
		return v
	}
	if searchErr != nil {
		v.Reasons = append(v.Reasons, fmt.Sprintf("error inesperado: %v", searchErr))
		return v
	}

	got := make([]string, 0, len(results))
	for _, r := range results {
		got = append(got, r.ID)
	}
	if strings.Join(got, ",") != strings.Join(sc.ExpectedIDs, ",") {
		v.Reasons = append(v.Reasons, fmt.Sprintf("orden esperado %v, obtenido %v", sc.ExpectedIDs, got))
	}
	if sc.ExpectedTop > 0 && len(results) > 0 && results[0].Relevance != sc.ExpectedTop {
		v.Reasons = append(v.Reasons, fmt.Sprintf("relevancia esperada %d, obtenida %d", sc.ExpectedTop, results[0].Relevance))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Relevance > results[i-1].Relevance {
			v.Reasons = append(v.Reasons, "resultados no ordenados por relevancia")
			break
		}
	}
	v.Passed = len(v.Reasons) == 0
	return v
}

func formatResult(r domain.SearchResult) string {
	return fmt.Sprintf("%-6s rel=%d msgs=%d %q", r.ID, r.Relevance, r.MessageCount, r.Title)
}
