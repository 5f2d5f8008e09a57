package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/clubroom/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRules(t *testing.T) {
	s := newTestServer(t)
	_, tokenOwner := s.signup(t, "owner@example.com", "Olga")
	author, tokenAuthor := s.signup(t, "author@example.com", "Arthur")
	other, tokenOther := s.signup(t, "other@example.com", "Otto")
	club := s.createClub(t, tokenOwner)
	for _, id := range []int{author.ID, other.ID} {
		rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/clubs/%d/members/%d", club.ID, id), tokenOwner, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	postsPath := fmt.Sprintf("/api/clubs/%d/posts", club.ID)

	rec := s.do(t, http.MethodPost, postsPath, tokenAuthor, map[string]any{"title": strings.Repeat("t", 31), "content": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Max title length is 30", issueFields(decode[ErrorResponse](t, rec))["title"])

	rec = s.do(t, http.MethodPost, postsPath, tokenAuthor, map[string]any{"title": "Opening", "content": "Sicilian"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[types.Post](t, rec)
	assert.Equal(t, "Arthur", post.AuthorName)
	assert.Equal(t, "Chess", post.ClubName)
	postPath := fmt.Sprintf("%s/%d", postsPath, post.ID)

	rec = s.do(t, http.MethodPut, postPath, tokenOther, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Only author can make this request", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodGet, postPath, tokenOther, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Opening", decode[types.Post](t, rec).Title)

	rec = s.do(t, http.MethodPut, postPath, tokenAuthor, map[string]any{"content": "French"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "French", decode[types.Post](t, rec).Content)

	rec = s.do(t, http.MethodPut, postPath, tokenAuthor, map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, postPath, tokenOther, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodDelete, postPath, tokenOwner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, postPath, tokenOther, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
