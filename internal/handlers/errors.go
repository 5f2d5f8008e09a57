package handlers

import (
	"errors"
	"net/http"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/clubroom/apiserver/internal/store"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// writeAppError translates err into a status code and error payload.
// Internal errors are logged and never echoed to the client.
func writeAppError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = fromStoreError(err)
	}

	switch appErr.Kind {
	case apperr.KindInvalidInput:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: appErr.Message, Issues: appErr.Issues})
	case apperr.KindConflict, apperr.KindInvalidCredentials:
		writeError(w, http.StatusBadRequest, appErr.Message)
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, appErr.Message)
	case apperr.KindUnauthenticated, apperr.KindForbidden:
		writeError(w, http.StatusUnauthorized, appErr.Message)
	default:
		logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// fromStoreError covers store sentinels that reached the handler without
// being mapped by a service.
func fromStoreError(err error) *apperr.Error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Not found")
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict("Already exists", err)
	case errors.Is(err, store.ErrInvalidReference):
		return apperr.Conflict("Invalid reference", err)
	}
	return apperr.Internal(err)
}
