package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/clubroom/apiserver/config"
	"github.com/clubroom/apiserver/internal/auth"
	"github.com/clubroom/apiserver/internal/db"
	"github.com/clubroom/apiserver/internal/handlers"
	"github.com/clubroom/apiserver/internal/mq"
	"github.com/clubroom/apiserver/internal/services"
	"github.com/clubroom/apiserver/internal/storage"
	"github.com/clubroom/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Server wraps the HTTP server, router and the clients it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *zap.Logger
	db         *sqlx.DB
	revoker    *auth.RedisRevoker
	queue      *mq.MQ
	objects    *storage.Storage
}

// New connects every configured dependency and builds the router.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (srv *Server, err error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	s := &Server{logger: logger}
	defer func() {
		if err != nil {
			s.closeClients()
		}
	}()

	s.db, err = db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var revoker auth.Revoker
	if cfg.Redis.Addr != "" {
		client, err := auth.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		s.revoker = auth.NewRedisRevoker(client)
		revoker = s.revoker
	} else {
		logger.Info("redis not configured, logout disabled")
	}

	s.queue, err = mq.NewFromConfig(ctx, cfg.MQ, logger.Named("mq"))
	if err != nil {
		return nil, err
	}
	var publisher services.ActivityPublisher
	if s.queue != nil {
		publisher = s.queue
	}

	s.objects, err = storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(s.db)
	clubRepo := store.NewClubRepository(s.db)
	membershipRepo := store.NewMembershipRepository(s.db)
	postRepo := store.NewPostRepository(s.db)
	eventRepo := store.NewEventRepository(s.db)

	serviceLogger := logger.Named("services")
	access := services.NewAccessService(membershipRepo)
	api := handlers.API{
		Users:   services.NewUserService(userRepo),
		Access:  access,
		Clubs:   services.NewClubService(clubRepo, membershipRepo, publisher, serviceLogger),
		Posts:   services.NewPostService(postRepo, access, publisher, serviceLogger),
		Events:  services.NewEventService(eventRepo, publisher, serviceLogger),
		Tokens:  auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Revoker: revoker,
		Logger:  logger.Named("http"),
	}
	if s.objects != nil {
		api.Logos = services.NewLogoService(clubRepo, s.objects, serviceLogger)
	} else {
		logger.Info("object storage not configured, club logos disabled")
	}

	s.router = chi.NewRouter()
	s.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(logger.Named("access")),
		middleware.Recoverer,
		middleware.Timeout(cfg.RequestTimeout),
	)
	handlers.Mount(s.router, api)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires and then releases every client.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeClients()
	return err
}

func (s *Server) closeClients() {
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			s.logger.Warn("failed to close mq", zap.Error(err))
		}
	}
	if s.objects != nil {
		if err := s.objects.Close(); err != nil {
			s.logger.Warn("failed to close object storage", zap.Error(err))
		}
	}
	if s.revoker != nil {
		if err := s.revoker.Close(); err != nil {
			s.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
