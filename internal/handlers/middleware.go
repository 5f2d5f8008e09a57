package handlers

import (
	"net/http"
	"time"

	"github.com/clubroom/apiserver/internal/apperr"
	"github.com/clubroom/apiserver/internal/auth"
	"github.com/clubroom/apiserver/internal/services"
	"github.com/clubroom/apiserver/types"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequireAuth verifies the bearer token and injects the principal into the
// request context. Revoked tokens are rejected when revoker is set.
func RequireAuth(tokens *auth.Tokens, revoker auth.Revoker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeAppError(w, r, logger, apperr.Unauthenticated("Unauthorized"))
				return
			}

			principal, err := tokens.Parse(token)
			if err != nil {
				writeAppError(w, r, logger, apperr.Unauthenticated("Unauthorized"))
				return
			}

			if revoker != nil {
				revoked, err := revoker.IsRevoked(r.Context(), principal.TokenID)
				if err != nil {
					writeAppError(w, r, logger, err)
					return
				}
				if revoked {
					writeAppError(w, r, logger, apperr.Unauthenticated("Token has been revoked"))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireClubRole admits the principal when it holds any of the required
// roles in the club named by the clubID URL parameter. It must run after
// RequireAuth.
func RequireClubRole(access *services.AccessService, required types.RoleSet, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				writeAppError(w, r, logger, apperr.Unauthenticated("Unauthorized"))
				return
			}
			clubID, err := parseID(r, "clubID", "Invalid club ID")
			if err != nil {
				writeAppError(w, r, logger, err)
				return
			}
			if _, err := access.Authorize(r.Context(), required, clubID, principal.UserID); err != nil {
				writeAppError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request with its outcome.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// principal returns the authenticated caller. Routes behind RequireAuth
// always have one.
func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		return auth.Principal{}, apperr.Unauthenticated("Unauthorized")
	}
	return p, nil
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
