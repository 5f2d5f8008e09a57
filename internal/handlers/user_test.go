package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/clubroom/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserWithoutPassword(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/users", "", map[string]any{"email": "a@example.com", "name": " A "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode[types.User](t, rec)
	assert.Equal(t, "A", user.Name)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "a@example.com", "password": "anything"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAndGetUsers(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		rec := s.do(t, http.MethodPost, "/api/users", "", map[string]any{
			"email": fmt.Sprintf("u%d@example.com", i),
			"name":  fmt.Sprintf("User %d", i),
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/users?page=2&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ListResponse[types.User]](t, rec)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 2, list.Page)
	require.Len(t, list.Items, 1)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", list.Items[0].ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/users/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/users?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUser(t *testing.T) {
	s := newTestServer(t)
	a, tokenA := s.signup(t, "a@example.com", "Alice")
	b, _ := s.signup(t, "b@example.com", "Bob")
	pathA := fmt.Sprintf("/api/users/%d", a.ID)

	rec := s.do(t, http.MethodPut, pathA, "", map[string]any{"name": "X", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/api/users/%d", b.ID), tokenA, map[string]any{"name": "X", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Only same user can make this request", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodPut, pathA, tokenA, map[string]any{"name": "X", "password": "Wrong#123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPut, pathA, tokenA, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, pathA, tokenA, map[string]any{"name": "Alicia", "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Alicia", decode[types.User](t, rec).Name)

	// The token still carries the profile captured at login.
	principal, err := s.tokens.Parse(tokenA)
	require.NoError(t, err)
	assert.Equal(t, "Alice", principal.Profile.Name)
}
