// Package server is the composition root: it opens the database, builds the
// services and handlers, mounts the routes and runs the HTTP server.
//
// DEPENDENCY CHAIN:
//
//	config → sqlite.DB ──→ services ──→ handlers ──→ chi routes
//	       → ImageStore ↗
//
// Each layer receives only what it needs: services see repository
// interfaces, handlers see services, nothing but this package sees the
// concrete sqlite.DB.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/recipe-share/internal/auth"
	"github.com/sakif/recipe-share/internal/config"
	"github.com/sakif/recipe-share/internal/handler"
	"github.com/sakif/recipe-share/internal/middleware"
	sqliteRepo "github.com/sakif/recipe-share/internal/repository/sqlite"
	"github.com/sakif/recipe-share/internal/service"
	"github.com/sakif/recipe-share/internal/storage"
)

// uploadsPrefix is the URL path local images are served under.
const uploadsPrefix = "/uploads"

// Server owns the router and the database connection; the database is
// closed when Start returns or Close is called.
type Server struct {
	router     *chi.Mux
	config     *config.Config
	logger     *slog.Logger
	db         *sqliteRepo.DB
	images     storage.ImageStore
	localStore *storage.LocalStore // set only when images are kept on disk
}

// New opens the database, applies migrations, selects the image store and
// wires every route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if !isMemoryPath(cfg.DBPath) {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupImageStore(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func isMemoryPath(p string) bool {
	return strings.HasPrefix(p, ":memory:") || strings.Contains(p, "mode=memory")
}

func (s *Server) setupImageStore(ctx context.Context) error {
	switch s.config.ImageStore {
	case config.ImageStoreS3:
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    s.config.S3Bucket,
			Region:    s.config.S3Region,
			Endpoint:  s.config.S3Endpoint,
			AccessKey: s.config.S3AccessKey,
			SecretKey: s.config.S3SecretKey,
			PublicURL: s.config.S3PublicURL,
		})
		if err != nil {
			return fmt.Errorf("creating S3 image store: %w", err)
		}
		s.images = store
	default:
		store, err := storage.NewLocalStore(s.config.UploadDir, uploadsPrefix)
		if err != nil {
			return fmt.Errorf("creating local image store: %w", err)
		}
		s.images = store
		s.localStore = store
	}
	return nil
}

// setupRoutes mounts middleware and every endpoint.
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: assigns an id the logger prints
//  2. RealIP: honours X-Forwarded-For
//  3. Logger: one line per request
//  4. Recoverer: a panic becomes a 500 instead of a crash
//  5. CORS: allowed origins from config
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !allowsAnyOrigin(s.config.AllowedOrigins),
		MaxAge:           300,
	}))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.AccessTokenExpiry)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordServiceWithCost(s.config.BcryptCost)

	userService := service.NewUserService(s.db.Users(), passwords, s.logger)
	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	ingredientService := service.NewIngredientService(s.db.Ingredients(), s.logger)
	recipeService := service.NewRecipeService(s.db.Recipes(), s.images, s.config.MaxUploadBytes(), s.logger)
	favoriteService := service.NewFavoriteService(s.db.Favorites(), s.logger)

	users := handler.NewUserHandler(userService, s.logger)
	login := handler.NewAuthHandler(authService, s.logger)
	ingredients := handler.NewIngredientHandler(ingredientService, s.logger)
	recipes := handler.NewRecipeHandler(recipeService, s.config.MaxUploadBytes(), s.logger)
	favorites := handler.NewFavoriteHandler(favoriteService, s.logger)
	health := handler.NewHealthHandler(s.db, s.logger)

	requireAuth := auth.RequireAuth(authService)

	s.router.Get("/healthz", health.HandleHealth)
	s.router.Post("/login", login.HandleLogin)

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/", users.HandleRegister)
		r.Get("/", users.HandleList)
		r.Get("/{id}", users.HandleGet)
		r.With(requireAuth).Put("/{id}", users.HandleUpdate)
		r.With(requireAuth).Delete("/{id}", users.HandleDelete)
	})
	s.router.With(requireAuth).Get("/me", users.HandleMe)

	s.router.Route("/ingredients", func(r chi.Router) {
		r.Get("/", ingredients.HandleList)
		r.Get("/{id}", ingredients.HandleGet)
		r.With(requireAuth).Post("/", ingredients.HandleCreate)
	})

	s.router.Route("/recipes", func(r chi.Router) {
		r.Get("/", recipes.HandleList)
		r.Get("/{id}", recipes.HandleGet)
		r.Get("/{id}/favorites/count", favorites.HandleCount)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", recipes.HandleCreate)
			r.Get("/mine", recipes.HandleListMine)
			r.Put("/{id}", recipes.HandleUpdate)
			r.Delete("/{id}", recipes.HandleDelete)
			r.Post("/{id}/images", recipes.HandleUploadImage)
		})
	})

	s.router.Route("/favorites", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", favorites.HandleList)
		r.Get("/{recipe_id}", favorites.HandleStatus)
		r.Post("/{recipe_id}", favorites.HandleAdd)
		r.Delete("/{recipe_id}", favorites.HandleRemove)
	})

	if s.localStore != nil {
		fileServer := http.FileServer(http.Dir(s.localStore.Dir()))
		s.router.Handle(uploadsPrefix+"/*", http.StripPrefix(uploadsPrefix+"/", fileServer))
	}

	return nil
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully:
//  1. stop accepting new connections
//  2. wait up to 30s for in-flight requests
//  3. close the database (flushes WAL, releases the file lock)
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("imageStore", s.config.ImageStore),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
