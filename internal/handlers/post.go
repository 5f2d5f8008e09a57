package handlers

import (
	"net/http"
	"strings"

	"github.com/clubroom/apiserver/internal/services"
	"github.com/clubroom/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PostHandler provides HTTP handlers for club posts.
type PostHandler struct {
	posts  *services.PostService
	logger *zap.Logger
}

func NewPostHandler(posts *services.PostService, logger *zap.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: loggerOrNop(logger)}
}

// PostRouter registers post routes. Every route needs club membership;
// updates and deletes are further restricted by the service.
func PostRouter(r chi.Router, posts *services.PostService, gate func(types.RoleSet) func(http.Handler) http.Handler, logger *zap.Logger) {
	handler := NewPostHandler(posts, logger)

	r.Use(gate(types.AnyMember))
	r.Get("/", handler.ListPosts)
	r.Post("/", handler.CreatePost)
	r.Route("/{postID}", func(r chi.Router) {
		r.Get("/", handler.GetPost)
		r.Put("/", handler.UpdatePost)
		r.Delete("/", handler.DeletePost)
	})
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	clubID, err := parseID(r, "clubID", "Invalid club ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	posts, err := h.posts.List(r.Context(), clubID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	clubID, postID, err := parsePostPath(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Get(r.Context(), clubID, postID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
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

	var req CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if err := validateRequest(req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Create(r.Context(), caller.UserID, clubID, services.NewPost{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	clubID, postID, err := parsePostPath(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	var req UpdatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	req.Title = trimPtr(req.Title)
	req.Content = trimPtr(req.Content)
	if err := validateRequest(req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Update(r.Context(), caller.UserID, clubID, postID, services.PostUpdate{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	caller, err := principal(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	clubID, postID, err := parsePostPath(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	if err := h.posts.Delete(r.Context(), caller.UserID, clubID, postID); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parsePostPath(r *http.Request) (clubID, postID int, err error) {
	if clubID, err = parseID(r, "clubID", "Invalid club or post ID"); err != nil {
		return 0, 0, err
	}
	if postID, err = parseID(r, "postID", "Invalid club or post ID"); err != nil {
		return 0, 0, err
	}
	return clubID, postID, nil
}

type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,max=30"`
	Content string `json:"content" validate:"required,max=5000"`
}

type UpdatePostRequest struct {
	Title   *string `json:"title" validate:"omitnil,min=1,max=30"`
	Content *string `json:"content" validate:"omitnil,min=1,max=5000"`
}
