package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/clubroom/apiserver/internal/services"
	"github.com/clubroom/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EventHandler provides HTTP handlers for club events.
type EventHandler struct {
	events *services.EventService
	logger *zap.Logger
}

func NewEventHandler(events *services.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{events: events, logger: loggerOrNop(logger)}
}

// EventRouter registers event routes. Members read, admins and the owner
// write.
func EventRouter(r chi.Router, events *services.EventService, gate func(types.RoleSet) func(http.Handler) http.Handler, logger *zap.Logger) {
	handler := NewEventHandler(events, logger)

	r.With(gate(types.AnyMember)).Get("/", handler.ListEvents)
	r.With(gate(types.AdminOrOwner)).Post("/", handler.CreateEvent)
	r.Route("/{eventID}", func(r chi.Router) {
		r.With(gate(types.AnyMember)).Get("/", handler.GetEvent)
		r.With(gate(types.AdminOrOwner)).Put("/", handler.UpdateEvent)
		r.With(gate(types.AdminOrOwner)).Delete("/", handler.DeleteEvent)
	})
}

// ListEvents accepts finished=true|false and date=asc|desc.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	clubID, err := parseID(r, "clubID", "Invalid club ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	filter, err := parseEventFilter(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	events, err := h.events.List(r.Context(), clubID, filter)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	clubID, eventID, err := parseEventPath(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Get(r.Context(), clubID, eventID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	clubID, err := parseID(r, "clubID", "Invalid club ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	var req CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := validateRequest(req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Create(r.Context(), caller.UserID, clubID, services.NewEvent{
		Title:       req.Title,
		Description: req.Description,
		Date:        *req.Date,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// UpdateEvent accepts any date, past or future, and recomputes finished.
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	clubID, eventID, err := parseEventPath(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	var req UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	req.Title = trimPtr(req.Title)
	req.Description = trimPtr(req.Description)
	if err := validateRequest(req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Update(r.Context(), clubID, eventID, services.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	clubID, eventID, err := parseEventPath(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	if err := h.events.Delete(r.Context(), clubID, eventID); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseEventPath(r *http.Request) (clubID, eventID int, err error) {
	if clubID, err = parseID(r, "clubID", "Invalid club or event ID"); err != nil {
		return 0, 0, err
	}
	if eventID, err = parseID(r, "eventID", "Invalid club or event ID"); err != nil {
		return 0, 0, err
	}
	return clubID, eventID, nil
}

func parseEventFilter(r *http.Request) (types.EventFilter, error) {
	var filter types.EventFilter
	query := r.URL.Query()

	switch strings.ToLower(strings.TrimSpace(query.Get("finished"))) {
	case "":
	case "true":
		finished := true
		filter.Finished = &finished
	case "false":
		finished := false
		filter.Finished = &finished
	default:
		return filter, apperr.InvalidInput("Invalid query", apperr.Issue{Field: "finished", Message: "Expected true or false"})
	}

	switch order := types.SortOrder(strings.ToLower(strings.TrimSpace(query.Get("date")))); order {
	case "":
		filter.Order = types.SortDesc
	case types.SortAsc, types.SortDesc:
		filter.Order = order
	default:
		return filter, apperr.InvalidInput("Invalid query", apperr.Issue{Field: "date", Message: "Expected asc or desc"})
	}
	return filter, nil
}

// CreateEventRequest carries an RFC 3339 date that must not be in the past.
type CreateEventRequest struct {
	Title       string     `json:"title" validate:"required,max=100"`
	Description string     `json:"description" validate:"required,max=255"`
	Date        *time.Time `json:"date" validate:"required"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title" validate:"omitnil,min=1,max=100"`
	Description *string    `json:"description" validate:"omitnil,min=1,max=255"`
	Date        *time.Time `json:"date"`
}
