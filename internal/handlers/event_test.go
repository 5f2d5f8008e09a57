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

func TestEventValidation(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signup(t, "a@example.com", "Alice")
	club := s.createClub(t, token)
	eventsPath := fmt.Sprintf("/api/clubs/%d/events", club.ID)

	rec := s.do(t, http.MethodPost, eventsPath, token, map[string]any{
		"title":       "Past",
		"description": "Already over",
		"date":        time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Event is too old", issueFields(decode[ErrorResponse](t, rec))["date"])

	rec = s.do(t, http.MethodPost, eventsPath, token, map[string]any{"title": "No date", "description": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Date is required", issueFields(decode[ErrorResponse](t, rec))["date"])

	rec = s.do(t, http.MethodPost, eventsPath, token, map[string]any{"title": "Bad", "description": "x", "date": "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEventsQuery(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signup(t, "a@example.com", "Alice")
	club := s.createClub(t, token)
	eventsPath := fmt.Sprintf("/api/clubs/%d/events", club.ID)

	var ids []int
	for _, offset := range []time.Duration{time.Hour, 48 * time.Hour} {
		rec := s.do(t, http.MethodPost, eventsPath, token, map[string]any{
			"title":       "Event",
			"description": "Club night",
			"date":        time.Now().Add(offset).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ids = append(ids, decode[types.Event](t, rec).ID)
	}
	rec := s.do(t, http.MethodPut, fmt.Sprintf("%s/%d", eventsPath, ids[0]), token, map[string]any{
		"date": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, eventsPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{ids[1], ids[0]}, eventIDs(decode[[]types.Event](t, rec)))

	rec = s.do(t, http.MethodGet, eventsPath+"?date=asc", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ids, eventIDs(decode[[]types.Event](t, rec)))

	rec = s.do(t, http.MethodGet, eventsPath+"?finished=true", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{ids[0]}, eventIDs(decode[[]types.Event](t, rec)))

	rec = s.do(t, http.MethodGet, eventsPath+"?finished=false", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{ids[1]}, eventIDs(decode[[]types.Event](t, rec)))

	for _, query := range []string{"?finished=maybe", "?date=sideways"} {
		rec = s.do(t, http.MethodGet, eventsPath+query, token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}

	rec = s.do(t, http.MethodGet, fmt.Sprintf("%s/%d", eventsPath, 999), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func eventIDs(events []types.Event) []int {
	ids := make([]int, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}
