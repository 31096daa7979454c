package http

import (
	"net/http"
	"testing"
)

type suggestBody struct {
	Suggestions []struct {
		ID         string  `json:"id"`
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"suggestions"`
	Query     *string `json:"query"`
	Model     string  `json:"model"`
	Timestamp string  `json:"timestamp"`
}

func TestSuggestHandler_ShortInputReturnsEmptyList(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})

	rec := env.postJSON("/api/autosuggest", `{"text":"ab"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body suggestBody
	decode(t, rec, &body)
	if body.Suggestions == nil || len(body.Suggestions) != 0 {
		t.Fatalf("expected empty list, got %+v", body.Suggestions)
	}
	if body.Query == nil || *body.Query != "ab" || body.Model != "test-model" || body.Timestamp == "" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestSuggestHandler_RejectsMissingOrNonStringText(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})
	for _, payload := range []string{`{"text":""}`, `{}`, `{"text":42}`, `not json`} {
		if rec := env.postJSON("/api/autosuggest", payload); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", payload, rec.Code)
		}
	}
}

func TestSuggestHandler_RespectsMaxAndModel(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})

	rec := env.postJSON("/api/autosuggest", `{"text":"how","modelId":"other","maxSuggestions":1}`)
	var body suggestBody
	decode(t, rec, &body)
	if rec.Code != http.StatusOK || body.Model != "other" || len(body.Suggestions) > 1 {
		t.Fatalf("unexpected result: %d %+v", rec.Code, body)
	}
}

func TestSuggestHandler_Starter(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})

	var body suggestBody
	decode(t, env.get("/api/autosuggest/starter?maxSuggestions=3"), &body)
	if len(body.Suggestions) != 3 || body.Query != nil {
		t.Fatalf("expected 3 starters without query, got %+v", body)
	}

	decode(t, env.get("/api/autosuggest/starter?maxSuggestions=lots"), &body)
	if len(body.Suggestions) != 5 {
		t.Fatalf("expected default of 5 starters, got %d", len(body.Suggestions))
	}
}
