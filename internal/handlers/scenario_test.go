package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/clubroom/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Register A, log in, create a club, add B; B reads posts but cannot
// schedule events.
func TestMemberScenario(t *testing.T) {
	s := newTestServer(t)
	a, tokenA := s.signup(t, "a@example.com", "Alice")
	b, tokenB := s.signup(t, "b@example.com", "Bob")

	principal, err := s.tokens.Parse(tokenA)
	require.NoError(t, err)
	assert.Equal(t, a.ID, principal.UserID)
	assert.Equal(t, "a@example.com", principal.Profile.Email)

	club := s.createClub(t, tokenA)
	assert.Equal(t, a.ID, club.OwnerID)
	postsPath := fmt.Sprintf("/api/clubs/%d/posts", club.ID)
	eventsPath := fmt.Sprintf("/api/clubs/%d/events", club.ID)

	rec := s.do(t, http.MethodGet, postsPath, tokenB, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/clubs/%d/members/%d", club.ID, b.ID), tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[types.Club](t, rec).MemberCount)

	rec = s.do(t, http.MethodGet, postsPath, tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]types.Post](t, rec))

	rec = s.do(t, http.MethodPost, eventsPath, tokenB, map[string]any{
		"title":       "Blitz night",
		"description": "Five minute games",
		"date":        time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, eventsPath, tokenB, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreatorHoldsEveryRole(t *testing.T) {
	s := newTestServer(t)
	a, token := s.signup(t, "a@example.com", "Alice")
	club := s.createClub(t, token)

	rec := s.do(t, http.MethodGet, fmt.Sprintf("/api/clubs/%d/admins", club.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	admins := decode[[]types.ClubMember](t, rec)
	require.Len(t, admins, 1)
	assert.Equal(t, a.ID, admins[0].UserID)
	assert.True(t, admins[0].IsOwner)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/clubs/%d/members", club.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.ClubMember](t, rec), 1)
}

func TestNonMemberIsDeniedEvenForMissingClub(t *testing.T) {
	s := newTestServer(t)
	_, tokenA := s.signup(t, "a@example.com", "Alice")
	_, tokenC := s.signup(t, "c@example.com", "Carol")
	club := s.createClub(t, tokenA)

	paths := []string{
		fmt.Sprintf("/api/clubs/%d", club.ID),
		fmt.Sprintf("/api/clubs/%d/posts", club.ID),
		fmt.Sprintf("/api/clubs/%d/events", club.ID),
		"/api/clubs/999/posts",
		"/api/clubs/999/events",
	}
	for _, path := range paths {
		rec := s.do(t, http.MethodGet, path, tokenC, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
	}
}

func TestAdminManagesEventsAndMembers(t *testing.T) {
	s := newTestServer(t)
	_, tokenA := s.signup(t, "a@example.com", "Alice")
	admin, tokenAdmin := s.signup(t, "admin@example.com", "Adam")
	member, tokenMember := s.signup(t, "m@example.com", "Mia")
	club := s.createClub(t, tokenA)

	rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/clubs/%d/admins/%d", club.ID, admin.ID), tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/clubs/%d/members/%d", club.ID, member.ID), tokenAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	eventsPath := fmt.Sprintf("/api/clubs/%d/events", club.ID)
	rec = s.do(t, http.MethodPost, eventsPath, tokenAdmin, map[string]any{
		"title":       "Blitz night",
		"description": "Five minute games",
		"date":        time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decode[types.Event](t, rec)
	assert.False(t, event.Finished)
	eventPath := fmt.Sprintf("%s/%d", eventsPath, event.ID)

	rec = s.do(t, http.MethodPut, eventPath, tokenMember, map[string]any{"title": "Mine"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPut, eventPath, tokenAdmin, map[string]any{
		"date":     time.Now().Add(-time.Hour).Format(time.RFC3339),
		"finished": false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[types.Event](t, rec).Finished)

	rec = s.do(t, http.MethodPut, eventPath, tokenAdmin, map[string]any{
		"date": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[types.Event](t, rec).Finished)

	rec = s.do(t, http.MethodDelete, eventPath, tokenMember, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodDelete, eventPath, tokenAdmin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/clubs/%d/members/%d", club.ID, member.ID), tokenMember, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/clubs/%d/members/%d", club.ID, member.ID), tokenAdmin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, eventsPath, tokenMember, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOwnerOnlyClubRoutes(t *testing.T) {
	s := newTestServer(t)
	a, tokenA := s.signup(t, "a@example.com", "Alice")
	admin, tokenAdmin := s.signup(t, "admin@example.com", "Adam")
	club := s.createClub(t, tokenA)
	clubPath := fmt.Sprintf("/api/clubs/%d", club.ID)

	rec := s.do(t, http.MethodPost, fmt.Sprintf("%s/admins/%d", clubPath, admin.ID), tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, clubPath, tokenAdmin, map[string]any{"name": "Mine"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodDelete, clubPath, tokenAdmin, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("%s/admins/%d", clubPath, a.ID), tokenAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, clubPath, tokenA, map[string]any{"owner_id": 999})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid owner ID", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodPut, clubPath, tokenA, map[string]any{"owner_id": admin.ID, "name": "Chess Club"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[types.Club](t, rec)
	assert.Equal(t, admin.ID, updated.OwnerID)
	assert.Equal(t, "Chess Club", updated.Name)

	rec = s.do(t, http.MethodDelete, clubPath, tokenA, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodDelete, clubPath, tokenAdmin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, clubPath, tokenAdmin, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMalformedClubID(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signup(t, "a@example.com", "Alice")

	for _, id := range []string{"abc", "0", "-3"} {
		rec := s.do(t, http.MethodGet, "/api/clubs/"+id+"/posts", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
	}
}
