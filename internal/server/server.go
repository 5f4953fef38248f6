package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bbm-admin/apiserver/config"
	"github.com/bbm-admin/apiserver/internal/db"
	"github.com/bbm-admin/apiserver/internal/events"
	"github.com/bbm-admin/apiserver/internal/handlers"
	"github.com/bbm-admin/apiserver/internal/services"
	"github.com/bbm-admin/apiserver/internal/storage"
	"github.com/bbm-admin/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	emitter    *events.Emitter
}

// New constructs a Server: it opens the database, builds the storage
// and event clients from config, and mounts every route. All handler
// dependencies are injected here; nothing holds process-global state.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	secret := strings.TrimSpace(cfg.Auth.Secret)
	if secret == "" {
		return nil, errors.New("AUTH_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objectStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if objectStore.Configured() {
		if err := objectStore.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
	} else {
		logrus.Warn("object storage not configured, image uploads will be rejected")
	}

	emitter, err := events.NewEmitter(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	adminRepo := store.NewAdminRepository(dbConn)
	jobRepo := store.NewJobRepository(dbConn)
	albumRepo := store.NewAlbumRepository(dbConn)
	imageRepo := store.NewImageRepository(dbConn)

	adminService := services.NewAdminService(adminRepo)
	jobService := services.NewJobService(jobRepo, emitter)
	albumService := services.NewAlbumService(albumRepo, emitter)
	imageService := services.NewImageService(imageRepo, objectStore, emitter, cfg.Storage.StrictDelete)

	requireSession := handlers.RequireSession(secret)
	tokenTTL := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		handlers.RouteGuard(secret),
	)

	router.Get("/healthz", handlers.Healthz)
	router.Get("/login", handlers.LoginPage)
	router.Get("/dashboard", handlers.DashboardPage)
	router.Get("/dashboard/*", handlers.DashboardPage)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, adminService, secret, tokenTTL)
		})
		r.Route("/jobs", func(r chi.Router) {
			handlers.JobRouter(r, jobService, requireSession)
		})
		r.Route("/albums", func(r chi.Router) {
			handlers.AlbumRouter(r, albumService, requireSession)
		})
		r.Route("/gallery", func(r chi.Router) {
			handlers.GalleryRouter(r, imageService, requireSession)
		})
		r.Route("/dashboard", func(r chi.Router) {
			handlers.DashboardRouter(r, jobService, requireSession)
		})
		r.Route("/health", func(r chi.Router) {
			handlers.HealthRouter(r, dbConn, cfg)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		emitter:    emitter,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	logrus.WithField("addr", s.httpServer.Addr).Info("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.emitter != nil {
		_ = s.emitter.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
