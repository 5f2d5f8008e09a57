package handlers

import (
	"net/http"
	"strings"

	"github.com/clubroom/apiserver/internal/services"
	"github.com/clubroom/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler provides HTTP handlers for user accounts.
type UserHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewUserHandler(users *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: loggerOrNop(logger)}
}

// UserRouter registers user routes on the given router. Reads and account
// creation are public; updates require authentication.
func UserRouter(r chi.Router, users *services.UserService, authMiddleware func(http.Handler) http.Handler, logger *zap.Logger) {
	handler := NewUserHandler(users, logger)

	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.With(authMiddleware).Put("/", handler.UpdateUser)
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	items, total, err := h.users.List(r.Context(), offset, limit)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse[types.User]{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID", "Invalid user ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// CreateUser stores an account without credentials.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	req.normalize()
	if err := validateRequest(req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Create(r.Context(), services.NewUser{
		Email:       req.Email,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser changes the caller's own profile after re-checking their
// password.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID", "Invalid user ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	caller, err := principal(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	req.normalize()
	if err := validateRequest(req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Update(r.Context(), caller.UserID, id, services.UserUpdate{
		Name:        req.Name,
		Description: req.Description,
		Password:    req.Password,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type CreateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Name        string  `json:"name" validate:"required,max=25"`
	Description *string `json:"description" validate:"omitnil,max=255"`
}

func (req *CreateUserRequest) normalize() {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Description = trimPtr(req.Description)
}

type UpdateUserRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=25"`
	Description *string `json:"description" validate:"omitnil,max=255"`
	Password    string  `json:"password" validate:"required"`
}

func (req *UpdateUserRequest) normalize() {
	req.Name = trimPtr(req.Name)
	req.Description = trimPtr(req.Description)
}
