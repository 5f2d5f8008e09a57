package handlers

import (
	"net/http"
	"strings"

	"github.com/clubroom/apiserver/internal/auth"
	"github.com/clubroom/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthHandler provides signup, login and session endpoints.
type AuthHandler struct {
	users   *services.UserService
	tokens  *auth.Tokens
	revoker auth.Revoker
	logger  *zap.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, tokens *auth.Tokens, revoker auth.Revoker, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:   users,
		tokens:  tokens,
		revoker: revoker,
		logger:  loggerOrNop(logger),
	}
}

// AuthRouter registers auth routes on the given router. Logout is only
// available when a revoker is configured.
func AuthRouter(
	r chi.Router,
	users *services.UserService,
	tokens *auth.Tokens,
	revoker auth.Revoker,
	authMiddleware func(http.Handler) http.Handler,
	logger *zap.Logger,
) {
	handler := NewAuthHandler(users, tokens, revoker, logger)

	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.With(authMiddleware).Get("/me", handler.Me)
	if revoker != nil {
		r.With(authMiddleware).Post("/logout", handler.Logout)
	}
}

// Signup creates a user account with a password.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	req.normalize()
	if err := validateRequest(req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Signup(r.Context(), services.Signup{
		Email:       req.Email,
		Name:        req.Name,
		Password:    req.Password,
		Description: req.Description,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Login verifies credentials and returns an access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRequest(req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{AccessToken: token})
}

// Me returns the current authenticated user as stored, not as snapshotted
// in the token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), caller.UserID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout revokes the presented token until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	if err := h.revoker.Revoke(r.Context(), caller.TokenID, caller.ExpiresAt); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type SignupRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Name         string  `json:"name" validate:"required,max=25"`
	Password     string  `json:"password" validate:"required,min=8,max=24,password"`
	Confirmation string  `json:"confirmation" validate:"required,eqfield=Password"`
	Description  *string `json:"description" validate:"omitnil,min=1,max=255"`
}

func (req *SignupRequest) normalize() {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Description = trimPtr(req.Description)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}
