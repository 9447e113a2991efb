package api

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/assistant"
	"github.com/shelfwise/shelfwise-server/internal/auth"
	"github.com/shelfwise/shelfwise-server/internal/authz"
	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/recommend"
	"github.com/shelfwise/shelfwise-server/internal/search"
	"github.com/shelfwise/shelfwise-server/internal/service"
	"github.com/shelfwise/shelfwise-server/internal/store/sqlite"
)

// testEnvelope mirrors the success envelope for decoding responses.
type testEnvelope[T any] struct {
	Version int  `json:"v"`
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// testErrorEnvelope mirrors the error envelope.
type testErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// fakeModel replays canned model replies and records the requests it saw.
type fakeModel struct {
	mu       sync.Mutex
	replies  []assistant.ModelReply
	err      error
	requests []assistant.GenerateRequest
}

func (m *fakeModel) reply(replies ...assistant.ModelReply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

func (m *fakeModel) Generate(_ context.Context, req assistant.GenerateRequest) (assistant.ModelReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.replies) == 0 {
		return assistant.TextReply{Text: "I have nothing to add."}, nil
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r, nil
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api   humatest.TestAPI
	model *fakeModel
}

// setupTestServer creates a server over a temp-dir store and index with a
// fake model.
func setupTestServer(t *testing.T, opts ...func(*Options)) *testServer {
	t.Helper()
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.Open(search.Options{DataPath: dir, Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	enforcer, err := authz.NewEnforcer("")
	require.NoError(t, err)

	model := &fakeModel{}
	services := &Services{
		Auth:      service.NewAuthService(st, tokens, log),
		Book:      service.NewBookService(st, index, log),
		User:      service.NewUserService(st, log),
		Review:    service.NewReviewService(st, log),
		Dashboard: service.NewDashboardService(st, log),
		Recommend: recommend.NewEngine(st, log),
		Assistant: assistant.New(assistant.Config{Generator: model, Catalog: st, Logger: log}),
		Suggester: assistant.NewSuggester(model, st, log),
		Enforcer:  enforcer,
	}

	o := Options{LoginPerMinute: 100, AIPerMinute: 100}
	for _, fn := range opts {
		fn(&o)
	}

	s := NewServer(st, index, services, o, log)
	t.Cleanup(s.Close)

	return &testServer{Server: s, api: humatest.Wrap(t, s.api), model: model}
}

// createUser registers an account with role directly through the service
// and returns a bearer header for it.
func (ts *testServer) createUser(t *testing.T, email string, role domain.Role) (string, *domain.User) {
	t.Helper()
	ctx := context.Background()

	user, err := ts.services.Auth.CreateUser(ctx, service.RegisterRequest{
		Name:     "Test " + string(role),
		Email:    email,
		Password: "password123",
		Role:     role,
	})
	require.NoError(t, err)

	resp, err := ts.services.Auth.Login(ctx, service.LoginRequest{Email: email, Password: "password123"})
	require.NoError(t, err)
	return "Authorization: Bearer " + resp.AccessToken, user
}

// createBook adds a book through the service.
func (ts *testServer) createBook(t *testing.T, title, author string, categories ...string) *domain.Book {
	t.Helper()
	b, err := ts.services.Book.CreateBook(context.Background(), service.BookInput{
		Title:      title,
		Author:     author,
		Categories: categories,
	})
	require.NoError(t, err)
	return b
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	require.True(t, env.Success, "expected success envelope: %s", resp.Body.String())
	return env.Data
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) testErrorEnvelope {
	t.Helper()
	var env testErrorEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	require.False(t, env.Success, "expected error envelope: %s", resp.Body.String())
	return env
}
