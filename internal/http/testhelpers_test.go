package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"chat-search/internal/domain"
	"chat-search/internal/repository"
	"chat-search/internal/service"
)

var testBase = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type mockUserRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[user.ID] = user
	m.byEmail[strings.ToLower(user.Email)] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	id, ok := m.byEmail[strings.ToLower(email)]
	m.mu.Unlock()
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubRefresher struct {
	calls int
	err   error
}

func (r *stubRefresher) RefreshSearchIndex(context.Context) error {
	r.calls++
	return r.err
}

type testEnv struct {
	router  *gin.Engine
	jwt     *service.JWTService
	users   *mockUserRepo
	threads *repository.MemoryThreadRepository
	index   *stubRefresher
}

func textParts(text string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`[{"type":"text","text":%q}]`, text))
}

func seedThreads(t *testing.T) *repository.MemoryThreadRepository {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewMemoryThreadRepository()
	threads := []domain.Thread{
		{ID: "t1", Title: "JavaScript Code for Implementing Binary Search Algorithm", UserID: "u1", Visibility: domain.VisibilityPrivate, CreatedAt: testBase},
		{ID: "t2", Title: "Weekend plans", UserID: "u1", Visibility: domain.VisibilityPrivate, CreatedAt: testBase.Add(time.Hour)},
		{ID: "t3", Title: "Recipe ideas", UserID: "u2", Visibility: domain.VisibilityPublic, CreatedAt: testBase.Add(2 * time.Hour)},
	}
	for _, th := range threads {
		if err := repo.Create(ctx, th); err != nil {
			t.Fatalf("create thread: %v", err)
		}
	}
	msgs := []domain.Message{
		{ID: "m1", ChatID: "t1", Role: "user", Parts: textParts("explain binary search"), CreatedAt: testBase.Add(time.Minute)},
		{ID: "m2", ChatID: "t3", Role: "user", Parts: textParts("a quick pasta recipe"), CreatedAt: testBase.Add(2*time.Hour + time.Minute)},
	}
	for _, m := range msgs {
		if err := repo.AddMessage(ctx, m); err != nil {
			t.Fatalf("add message: %v", err)
		}
	}
	return repo
}

func newTestEnv(t *testing.T, gate GateConfig) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	threads := seedThreads(t)
	users := newMockUserRepo()
	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, time.Hour, service.NewMemoryRefreshTokenStore())
	userSvc := service.NewUserService(nil, users, service.NewMemoryLoginRateLimiter(10*time.Minute, 5))
	chatSvc := service.NewChatQueryService(nil, threads)
	refresher := &stubRefresher{}
	suggestSvc := service.NewSuggestionService(nil, service.NewMockSuggestionSource(), "test-model", nil, nil)

	router := NewRouter(RouterConfig{
		JWT:            jwtSvc,
		Gate:           gate,
		CORSOrigins:    []string{"http://localhost:3000"},
		DebugEndpoints: true,
		Chats:          NewChatHandler(nil, chatSvc, nil),
		Suggest:        NewSuggestHandler(nil, suggestSvc),
		Auth:           NewAuthHandler(nil, userSvc, jwtSvc, false),
		Handlers:       NewHandlers(nil, stubPinger{}, nil, refresher),
	})
	return &testEnv{router: router, jwt: jwtSvc, users: users, threads: threads, index: refresher}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func (e *testEnv) token(t *testing.T, user domain.User) string {
	t.Helper()
	pair, err := e.jwt.GeneratePair(user)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	return pair.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}
