// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on every request
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqlite.DB → OpinionService ─┐
//	  csrf.Protector ─────────────┼→ OpinionHandler → routes
//	  handler.Pages (web.Templates) ┘
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/what-to-watch/internal/config"
	"github.com/sakif/what-to-watch/internal/csrf"
	"github.com/sakif/what-to-watch/internal/handler"
	"github.com/sakif/what-to-watch/internal/middleware"
	sqliteRepo "github.com/sakif/what-to-watch/internal/repository/sqlite"
	"github.com/sakif/what-to-watch/internal/service"
	"github.com/sakif/what-to-watch/web"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and closes it on shutdown,
// after in-flight requests have finished.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and builds the router.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.RequireSecret(); err != nil {
		return nil, err
	}
	protector, err := csrf.New(cfg.Server.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("creating csrf protector: %w", err)
	}

	db, err := OpenDatabase(cfg.Database.URI)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(protector); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// OpenDatabase creates the parent directory of a file database if needed
// and opens it with migrations applied.
func OpenDatabase(uri string) (*sqliteRepo.DB, error) {
	if dir := filepath.Dir(uri); uri != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	db, err := sqliteRepo.New(uri)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET  /                → random opinion (404 page when empty)
// GET  /opinion/{id}    → one opinion
// GET  /add             → submission form
// POST /add             → submit, then 302 to /opinion/{id}
// GET  /static/*        → embedded CSS
//
// MIDDLEWARE ORDER:
// 1. RequestID, so every later log line can carry it
// 2. RealIP
// 3. Logger, which sees the final status including recovered panics
// 4. Recoverer, which renders the 500 page instead of a bare text body
func (s *Server) setupRoutes(protector *csrf.Protector) error {
	pages, err := handler.NewPages(web.Templates(), s.logger)
	if err != nil {
		return err
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Recoverer(s.logger, pages.ServerError))

	s.router.NotFound(pages.NotFound)
	s.router.MethodNotAllowed(pages.MethodNotAllowed)

	fileServer := http.FileServer(http.FS(web.Static()))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	opinionService := service.NewOpinionService(s.db, s.logger)
	opinionHandler := handler.NewOpinionHandler(opinionService, protector, pages, s.logger)

	s.router.Get("/", opinionHandler.HandleRandom)
	s.router.Get("/opinion/{id:[0-9]+}", opinionHandler.HandleShow)
	s.router.Get("/add", opinionHandler.HandleAddForm)
	s.router.Post("/add", opinionHandler.HandleAdd)

	return nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database connection.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new connections
// 2. Wait up to 30s for in-flight requests
// 3. Close the database connection (flushes WAL, releases the file)
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Server.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", ln.Addr().String()),
			slog.String("database", s.config.Database.URI),
		)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		<-serverErrors
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
