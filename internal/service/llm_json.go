package service

import (
	"regexp"
	"strings"
)

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

// extractLLMJSON devuelve el primer objeto o arreglo JSON balanceado de una
// respuesta de LLM, ignorando fences ```json, BOM y texto alrededor.
func extractLLMJSON(raw string) string {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "\uFEFF")
	s = fenceEnd.ReplaceAllString(fenceStart.ReplaceAllString(s, ""), "")
	if out := firstBalanced(s); out != "" {
		return out
	}
	return firstBalanced(raw)
}

// firstBalanced recorre desde el primer '{' o '[' respetando strings y escapes.
func firstBalanced(input string) string {
	start := strings.IndexAny(input, "{[")
	if start == -1 {
		return ""
	}

	var stack []byte
	inString, escape := false, false
	for i := start; i < len(input); i++ {
		ch := input[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return ""
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}
