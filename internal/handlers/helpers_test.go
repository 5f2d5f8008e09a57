package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/clubroom/apiserver/internal/auth"
	"github.com/clubroom/apiserver/internal/services"
	"github.com/clubroom/apiserver/internal/storage"
	"github.com/clubroom/apiserver/internal/store/memstore"
	"github.com/clubroom/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const testPassword = "Secret#123"

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (m *memRevoker) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = expiresAt
	return nil
}

func (m *memRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[tokenID]
	return ok, nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type testServer struct {
	router  *chi.Mux
	tokens  *auth.Tokens
	db      *memstore.DB
	objects *memObjects
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := memstore.New()
	objects := &memObjects{objects: map[string][]byte{}}
	tokens := auth.NewTokens("test-secret", time.Hour)
	access := services.NewAccessService(db.Memberships())

	router := chi.NewRouter()
	Mount(router, API{
		Users:   services.NewUserService(db.Users()),
		Access:  access,
		Clubs:   services.NewClubService(db.Clubs(), db.Memberships(), nil, nil),
		Posts:   services.NewPostService(db.Posts(), access, nil, nil),
		Events:  services.NewEventService(db.Events(), nil, nil),
		Logos:   services.NewLogoService(db.Clubs(), objects, nil),
		Tokens:  tokens,
		Revoker: &memRevoker{revoked: map[string]time.Time{}},
	})
	return &testServer{router: router, tokens: tokens, db: db, objects: objects}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// signup registers an account and returns it with a fresh access token.
func (s *testServer) signup(t *testing.T, email, name string) (types.User, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":        email,
		"name":         name,
		"password":     testPassword,
		"confirmation": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode[types.User](t, rec)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return user, decode[LoginResponse](t, rec).AccessToken
}

func (s *testServer) createClub(t *testing.T, token string) types.Club {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/clubs", token, map[string]any{
		"name":        "Chess",
		"description": "Weekly games",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[types.Club](t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func issueFields(resp ErrorResponse) map[string]string {
	fields := map[string]string{}
	for _, issue := range resp.Issues {
		fields[issue.Field] = issue.Message
	}
	return fields
}
