package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/clubroom/apiserver/internal/services"
	"github.com/clubroom/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ClubHandler provides HTTP handlers for clubs and their memberships.
type ClubHandler struct {
	clubs  *services.ClubService
	logos  *services.LogoService
	logger *zap.Logger
}

func NewClubHandler(clubs *services.ClubService, logos *services.LogoService, logger *zap.Logger) *ClubHandler {
	return &ClubHandler{clubs: clubs, logos: logos, logger: loggerOrNop(logger)}
}

// ClubRouter registers routes for a single club on a router mounted at
// /{clubID}. gate builds the role check for a route.
func ClubRouter(r chi.Router, handler *ClubHandler, gate func(types.RoleSet) func(http.Handler) http.Handler) {
	r.With(gate(types.AnyMember)).Get("/", handler.GetClub)
	r.With(gate(types.OwnerOnly)).Put("/", handler.UpdateClub)
	r.With(gate(types.OwnerOnly)).Delete("/", handler.DeleteClub)

	r.With(gate(types.AnyMember)).Get("/members", handler.ListMembers)
	r.With(gate(types.AdminOrOwner)).Post("/members/{memberID}", handler.AddMember)
	r.With(gate(types.AdminOrOwner)).Delete("/members/{memberID}", handler.RemoveMember)

	r.With(gate(types.AnyMember)).Get("/admins", handler.ListAdmins)
	r.With(gate(types.AdminOrOwner)).Post("/admins/{adminID}", handler.AddAdmin)
	r.With(gate(types.AdminOrOwner)).Delete("/admins/{adminID}", handler.RemoveAdmin)
}

func (h *ClubHandler) ListClubs(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	items, total, err := h.clubs.List(r.Context(), offset, limit)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse[types.Club]{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *ClubHandler) GetClub(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "clubID", "Invalid club ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	club, err := h.clubs.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, club)
}

// CreateClub stores a club owned by the caller.
func (h *ClubHandler) CreateClub(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	var req CreateClubRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := validateRequest(req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	club, err := h.clubs.Create(r.Context(), caller.UserID, services.NewClub{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, club)
}

func (h *ClubHandler) UpdateClub(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "clubID", "Invalid club ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	var req UpdateClubRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	req.Name = trimPtr(req.Name)
	req.Description = trimPtr(req.Description)
	if err := validateRequest(req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	club, err := h.clubs.Update(r.Context(), id, services.ClubUpdate{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, club)
}

// DeleteClub removes the club with its memberships, posts and events.
func (h *ClubHandler) DeleteClub(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "clubID", "Invalid club ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	club, err := h.clubs.Delete(r.Context(), id)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if h.logos != nil {
		h.logos.Purge(r.Context(), club)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClubHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	h.listRelation(w, r, h.clubs.Members)
}

func (h *ClubHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	h.listRelation(w, r, h.clubs.Admins)
}

func (h *ClubHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	h.addRelation(w, r, "memberID", "Invalid member ID", h.clubs.AddMember)
}

func (h *ClubHandler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	h.addRelation(w, r, "adminID", "Invalid admin ID", h.clubs.AddAdmin)
}

func (h *ClubHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	h.removeRelation(w, r, "memberID", "Invalid member ID", h.clubs.RemoveMember)
}

func (h *ClubHandler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	h.removeRelation(w, r, "adminID", "Invalid admin ID", h.clubs.RemoveAdmin)
}

func (h *ClubHandler) listRelation(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, clubID int) ([]types.ClubMember, error),
) {
	clubID, err := parseID(r, "clubID", "Invalid club ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	items, err := list(r.Context(), clubID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ClubHandler) addRelation(
	w http.ResponseWriter,
	r *http.Request,
	param, message string,
	add func(ctx context.Context, actorID, clubID, userID int) (types.Club, error),
) {
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
	userID, err := parseID(r, param, message)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	club, err := add(r.Context(), caller.UserID, clubID, userID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, club)
}

func (h *ClubHandler) removeRelation(
	w http.ResponseWriter,
	r *http.Request,
	param, message string,
	remove func(ctx context.Context, clubID, userID int) error,
) {
	clubID, err := parseID(r, "clubID", "Invalid club ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	userID, err := parseID(r, param, message)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	if err := remove(r.Context(), clubID, userID); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type CreateClubRequest struct {
	Name        string `json:"name" validate:"required,max=30"`
	Description string `json:"description" validate:"required,max=255"`
}

// UpdateClubRequest is a partial update. OwnerID transfers ownership.
type UpdateClubRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=30"`
	Description *string `json:"description" validate:"omitnil,min=1,max=255"`
	OwnerID     *int    `json:"owner_id" validate:"omitnil,gt=0"`
}
