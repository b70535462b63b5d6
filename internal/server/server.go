// Package server is the composition root: it assembles the database, the
// services, the handlers, and the route table, and owns startup and
// graceful shutdown. Nothing outside this package knows how the layers fit
// together.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mlanden/task-manager/internal/auth"
	"github.com/mlanden/task-manager/internal/avatar"
	"github.com/mlanden/task-manager/internal/config"
	"github.com/mlanden/task-manager/internal/handler"
	"github.com/mlanden/task-manager/internal/middleware"
	"github.com/mlanden/task-manager/internal/notify"
	sqliteRepo "github.com/mlanden/task-manager/internal/repository/sqlite"
	"github.com/mlanden/task-manager/internal/service"
)

// Server holds the router and the resources it must release on shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires the whole dependency chain: sqlite repositories into services,
// services into handlers, handlers into routes. Each layer receives only the
// interfaces it needs.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
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

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds the services, and declares the
// route table.
//
// Open routes: register, login, and avatar fetch by user ID. Everything
// else sits behind RequireAuth, which resolves the bearer token to an
// identity or answers 401 without detail.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	signer, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)
	notifier := notify.NewLogNotifier(s.logger)
	avatars := avatar.NewValidator(s.config.MaxAvatarBytes)

	authService := service.NewAuthService(s.db.Users(), s.db.Tokens(), signer, passwords, notifier, s.logger)
	userService := service.NewUserService(s.db.Users(), passwords, avatars, notifier, s.logger)
	taskService := service.NewTaskService(s.db.Tasks(), s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.config.MaxAvatarBytes, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, s.logger)

	s.router.Post("/users", authHandler.HandleRegister)
	s.router.Post("/users/login", authHandler.HandleLogin)
	s.router.Get("/users/{id}/avatar", userHandler.HandleGetAvatar)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(authService))

		r.Post("/users/logout", authHandler.HandleLogout)
		r.Post("/users/logoutAll", authHandler.HandleLogoutAll)

		r.Get("/users/me", userHandler.HandleMe)
		r.Patch("/users/me", userHandler.HandleUpdateMe)
		r.Delete("/users/me", userHandler.HandleDeleteMe)
		r.Post("/users/me/avatar", userHandler.HandleSetAvatar)
		r.Delete("/users/me/avatar", userHandler.HandleDeleteAvatar)

		r.Post("/tasks", taskHandler.HandleCreate)
		r.Get("/tasks", taskHandler.HandleList)
		r.Get("/tasks/{id}", taskHandler.HandleGet)
		r.Patch("/tasks/{id}", taskHandler.HandleUpdate)
		r.Delete("/tasks/{id}", taskHandler.HandleDelete)
	})

	return nil
}

// Handler exposes the assembled router, which lets tests drive the full
// stack through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources without serving. Start does this
// itself; Close exists for callers that only used Handler.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP until a SIGINT or SIGTERM arrives, then shuts down
// gracefully: stop accepting connections, drain in-flight requests within
// the configured timeout, and close the database so the WAL is flushed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.Addr),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(s.config.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
