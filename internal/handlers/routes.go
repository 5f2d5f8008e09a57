package handlers

import (
	"net/http"

	"github.com/clubroom/apiserver/internal/auth"
	"github.com/clubroom/apiserver/internal/services"
	"github.com/clubroom/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// API bundles the dependencies of every route.
type API struct {
	Users  *services.UserService
	Access *services.AccessService
	Clubs  *services.ClubService
	Posts  *services.PostService
	Events *services.EventService
	// Logos is nil when object storage is disabled; logo routes are then
	// not registered.
	Logos  *services.LogoService
	Tokens *auth.Tokens
	// Revoker is nil when Redis is disabled; logout is then not registered.
	Revoker auth.Revoker
	Logger  *zap.Logger
}

// Mount registers /healthz and every /api route on r.
func Mount(r chi.Router, api API) {
	logger := loggerOrNop(api.Logger)
	authenticated := RequireAuth(api.Tokens, api.Revoker, logger)
	gate := func(required types.RoleSet) func(http.Handler) http.Handler {
		return RequireClubRole(api.Access, required, logger)
	}

	r.Get("/healthz", Healthz)
	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			UserRouter(r, api.Users, authenticated, logger)
		})
		r.Route("/auth", func(r chi.Router) {
			AuthRouter(r, api.Users, api.Tokens, api.Revoker, authenticated, logger)
		})
		r.Route("/clubs", func(r chi.Router) {
			clubs := NewClubHandler(api.Clubs, api.Logos, logger)
			r.Get("/", clubs.ListClubs)
			r.With(authenticated).Post("/", clubs.CreateClub)

			r.Route("/{clubID}", func(r chi.Router) {
				r.Use(authenticated)
				ClubRouter(r, clubs, gate)
				r.Route("/posts", func(r chi.Router) {
					PostRouter(r, api.Posts, gate, logger)
				})
				r.Route("/events", func(r chi.Router) {
					EventRouter(r, api.Events, gate, logger)
				})
				if api.Logos != nil {
					r.Route("/logo", func(r chi.Router) {
						LogoRouter(r, api.Logos, gate, logger)
					})
				}
			})
		})
	})
}
