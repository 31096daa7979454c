package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-search/internal/domain"
)

func TestAccessGate_RedirectsToGuestWithoutSession(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})

	cases := map[string]string{
		"/":               "/api/auth/guest?redirectUrl=%2F",
		"/settings?tab=1": "/api/auth/guest?redirectUrl=%2Fsettings%3Ftab%3D1",
		"/chat/t1":        "/api/auth/guest?redirectUrl=%2Fchat%2Ft1",
	}
	for path, want := range cases {
		t.Run(path, func(t *testing.T) {
			rec := env.get(path)
			if rec.Code != http.StatusTemporaryRedirect {
				t.Fatalf("expected 307, got %d", rec.Code)
			}
			if got := rec.Header().Get("Location"); got != want {
				t.Fatalf("expected Location %q, got %q", want, got)
			}
		})
	}
}

func TestAccessGate_GameAllowedWithoutSession(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})
	rec := env.get("/game")
	if rec.Code == http.StatusTemporaryRedirect {
		t.Fatalf("expected /game to pass the gate, got redirect to %q", rec.Header().Get("Location"))
	}
}

func TestAccessGate_BypassPrefixes(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})
	for _, path := range []string{"/ping", "/api/chats", "/api/search?q=binary", "/api/autosuggest/starter", "/db-viewer/x"} {
		rec := env.get(path)
		if rec.Code == http.StatusTemporaryRedirect {
			t.Fatalf("%s: expected bypass, got redirect", path)
		}
	}
}

func TestAccessGate_InvalidTokenCountsAsAbsent(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := env.do(req)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected guest redirect, got %d", rec.Code)
	}
}

func TestAccessGate_RegisteredUserLeavesLoginPages(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})
	member := env.token(t, domain.User{ID: "u1", Email: "u1@example.com", CreatedAt: time.Now()})
	guest := env.token(t, domain.User{ID: "g1", Email: "guest-g1@guest.local", IsGuest: true})

	for _, path := range []string{"/login", "/register"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: member})
		rec := env.do(req)
		if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/" {
			t.Fatalf("%s: expected redirect to /, got %d %q", path, rec.Code, rec.Header().Get("Location"))
		}

		req = httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: guest})
		rec = env.do(req)
		if rec.Code == http.StatusTemporaryRedirect {
			t.Fatalf("%s: guest should reach the page, got redirect", path)
		}
	}
}

func TestAccessGate_PrivateChatRead(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: false})

	rec := env.get("/api/chats")
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected redirect without session, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, domain.User{ID: "u1"}))
	rec = env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", rec.Code)
	}
}

func TestSessionToken_CookieWinsOverHeader(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})
	cookieUser := env.token(t, domain.User{ID: "u2"})
	headerUser := env.token(t, domain.User{ID: "u1"})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: cookieUser})
	req.Header.Set("Authorization", "Bearer "+headerUser)
	rec := env.do(req)

	var body struct {
		Total int `json:"total"`
		Chats []struct {
			UserID string `json:"userId"`
		} `json:"chats"`
	}
	decode(t, rec, &body)
	if body.Total != 1 || body.Chats[0].UserID != "u2" {
		t.Fatalf("expected history of cookie user u2, got %+v", body)
	}
}
