package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_GuestSessionRedirects(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})

	rec := env.get("/api/auth/guest?redirectUrl=%2Fchat%2Ft1%3Fx%3D1")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/chat/t1?x=1" {
		t.Fatalf("unexpected redirect target %q", got)
	}
	session := findCookie(rec, sessionCookieName)
	if session == nil || !session.HttpOnly {
		t.Fatalf("expected http-only session cookie, got %+v", session)
	}
	claims, err := env.jwt.ParseAccessToken(session.Value)
	if err != nil || !claims.Guest {
		t.Fatalf("expected guest claims, got %+v %v", claims, err)
	}
	if _, err := env.users.GetByID(t.Context(), claims.UserID); err != nil {
		t.Fatalf("guest user not persisted: %v", err)
	}

	// Con la cookie puesta el gate deja pasar la ruta original.
	req := httptest.NewRequest(http.MethodGet, "/chat/t1", nil)
	req.AddCookie(session)
	if rec := env.do(req); rec.Code == http.StatusTemporaryRedirect {
		t.Fatalf("expected session to satisfy the gate")
	}
}

func TestSafeRedirectTarget(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/":                             "/",
		"/chat/1?x=2":                   "/chat/1?x=2",
		"https://evil.example":          "/",
		"//evil.example/path":           "/",
		"/\\evil.example":               "/",
		"javascript:alert(1)":           "/",
		"/api/auth/guest?redirectUrl=/": "/",
	}
	for in, want := range cases {
		if got := safeRedirectTarget(in); got != want {
			t.Errorf("safeRedirectTarget(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})

	rec := env.postJSON("/api/auth/register", `{"email":"Ana@Example.com","password":"correct-horse"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "correct-horse") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatalf("password material leaked: %s", rec.Body.String())
	}

	if rec := env.postJSON("/api/auth/register", `{"email":"ana@example.com","password":"another-pass"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
	if rec := env.postJSON("/api/auth/register", `{"email":"bob@example.com","password":"short"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for weak password, got %d", rec.Code)
	}

	rec = env.postJSON("/api/auth/login", `{"email":"ana@example.com","password":"correct-horse"}`)
	if rec.Code != http.StatusOK || findCookie(rec, sessionCookieName) == nil {
		t.Fatalf("expected login with session cookie, got %d", rec.Code)
	}
	if rec := env.postJSON("/api/auth/login", `{"email":"ana@example.com","password":"wrong-pass"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_LoginRateLimited(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})
	body := `{"email":"nobody@example.com","password":"wrong-pass"}`

	for i := 0; i < 5; i++ {
		if rec := env.postJSON("/api/auth/login", body); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}
	if rec := env.postJSON("/api/auth/login", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after five attempts, got %d", rec.Code)
	}
}

func TestAuthHandler_RefreshRotatesAndLogoutRevokes(t *testing.T) {
	env := newTestEnv(t, GateConfig{PublicChatRead: true})

	rec := env.postJSON("/api/auth/register", `{"email":"ana@example.com","password":"correct-horse"}`)
	refresh := findCookie(rec, refreshCookieName)
	if refresh == nil {
		t.Fatalf("expected refresh cookie")
	}

	rec = env.postJSON("/api/auth/refresh", `{"refresh_token":"`+refresh.Value+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := env.postJSON("/api/auth/refresh", `{"refresh_token":"`+refresh.Value+`"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected rotated token to be rejected, got %d", rec.Code)
	}

	rotated := findCookie(rec, refreshCookieName)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(rotated)
	rec = env.do(req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if c := findCookie(rec, sessionCookieName); c == nil || c.MaxAge >= 0 {
		t.Fatalf("expected session cookie to be cleared, got %+v", c)
	}
	if rec := env.postJSON("/api/auth/refresh", `{"refresh_token":"`+rotated.Value+`"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", rec.Code)
	}

	if rec := env.postJSON("/api/auth/refresh", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without token, got %d", rec.Code)
	}
}
