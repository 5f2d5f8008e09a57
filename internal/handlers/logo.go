package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/clubroom/apiserver/internal/services"
	"github.com/clubroom/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const formFieldLogo = "logo"

// LogoHandler serves club logos from object storage.
type LogoHandler struct {
	logos  *services.LogoService
	logger *zap.Logger
}

func NewLogoHandler(logos *services.LogoService, logger *zap.Logger) *LogoHandler {
	return &LogoHandler{logos: logos, logger: loggerOrNop(logger)}
}

// LogoRouter registers logo routes. Members read; only the owner changes it.
func LogoRouter(r chi.Router, logos *services.LogoService, gate func(types.RoleSet) func(http.Handler) http.Handler, logger *zap.Logger) {
	handler := NewLogoHandler(logos, logger)

	r.With(gate(types.AnyMember)).Get("/", handler.GetLogo)
	r.With(gate(types.OwnerOnly)).Put("/", handler.PutLogo)
	r.With(gate(types.OwnerOnly)).Delete("/", handler.DeleteLogo)
}

func (h *LogoHandler) GetLogo(w http.ResponseWriter, r *http.Request) {
	clubID, err := parseID(r, "clubID", "Invalid club ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	logo, err := h.logos.Open(r.Context(), clubID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	defer logo.Body.Close()

	w.Header().Set("Content-Type", logo.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, logo.Body); err != nil {
		h.logger.Warn("failed to stream logo", zap.Int("club_id", clubID), zap.Error(err))
	}
}

// PutLogo accepts the image either as the raw request body or as the
// "logo" field of a multipart form.
func (h *LogoHandler) PutLogo(w http.ResponseWriter, r *http.Request) {
	clubID, err := parseID(r, "clubID", "Invalid club ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	data, err := readLogo(w, r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	club, err := h.logos.Upload(r.Context(), clubID, data)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, club)
}

func (h *LogoHandler) DeleteLogo(w http.ResponseWriter, r *http.Request) {
	clubID, err := parseID(r, "clubID", "Invalid club ID")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	if err := h.logos.Remove(r.Context(), clubID); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readLogo(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := int64(services.MaxLogoBytes)
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return readFileLimited(r.Body, limit)
	}

	file, _, err := r.FormFile(formFieldLogo)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, logoTooLarge(limit)
		}
		return nil, apperr.InvalidInput("Invalid logo", apperr.Issue{Field: formFieldLogo, Message: "Logo is required"})
	}
	defer file.Close()
	return readFileLimited(file, limit)
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, logoTooLarge(limit)
		}
		return nil, apperr.InvalidInput("Failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, logoTooLarge(limit)
	}
	return data, nil
}

func logoTooLarge(limit int64) error {
	return apperr.InvalidInput("Invalid logo", apperr.Issue{
		Field:   formFieldLogo,
		Message: "Max logo size is " + strconv.FormatInt(limit>>20, 10) + "MB",
	})
}
