package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClient_GenerateSendsModelAndPrompt(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hola"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "sk-test", "default-model", nil)
	out, err := c.Generate(context.Background(), "prompt", WithModel("other-model"), WithSystemPrompt("sys"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hola" {
		t.Fatalf("expected hola, got %q", out)
	}
	if got.Model != "other-model" {
		t.Fatalf("expected model override, got %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "prompt" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestHTTPClient_GenerateErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
		"api error": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			c := NewHTTPClient(srv.URL, "k", "m", nil)
			if _, err := c.Generate(context.Background(), "p"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestWithModel_IgnoresBlank(t *testing.T) {
	o := callOptions{model: "default"}
	WithModel("  ")(&o)
	if o.model != "default" {
		t.Fatalf("expected default model kept, got %q", o.model)
	}
}

func TestNewProvider_RequiresKey(t *testing.T) {
	if _, err := NewProvider(ProviderConfig{}, nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	c, err := NewProvider(ProviderConfig{APIKey: "k", Model: "m"}, nil)
	if err != nil || c.Model() != "m" {
		t.Fatalf("unexpected provider: %v %v", c, err)
	}
}

func TestMockClient_RecordsCall(t *testing.T) {
	m := &MockClient{Response: "ok"}
	out, err := m.Generate(context.Background(), "p", WithModel("x"))
	if err != nil || out != "ok" {
		t.Fatalf("unexpected result: %q %v", out, err)
	}
	if m.LastModel != "x" || m.LastPrompt != "p" || m.Calls != 1 {
		t.Fatalf("unexpected record: %+v", m)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Generate(ctx, "p"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
