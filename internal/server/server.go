// Package server exposes the application over an authenticated JSON API
// plus RSS/OPML export endpoints.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"podfilter/internal/auth"
	"podfilter/internal/model"
	"podfilter/internal/storage"
)

// FeedFetcher downloads and parses a remote feed. Satisfied by
// *fetcher.Fetcher; tests substitute a canned implementation so no
// network I/O happens.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*model.ParsedFeed, error)
}

// Server holds the dependencies shared by all HTTP handlers.
type Server struct {
	store   storage.Storage
	fetcher FeedFetcher
	tokens  *auth.Tokens
	log     *slog.Logger
	baseURL string
}

// New creates a Server with the given collaborators.
func New(store storage.Storage, fetcher FeedFetcher, tokens *auth.Tokens, log *slog.Logger, baseURL string) *Server {
	return &Server{
		store:   store,
		fetcher: fetcher,
		tokens:  tokens,
		log:     log,
		baseURL: baseURL,
	}
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/auth/logout", s.handleLogout)

			r.Route("/feeds", func(r chi.Router) {
				r.Get("/", s.handleListFeeds)
				r.Post("/", s.handleAddFeed)
				r.Post("/import-opml", s.handleImportOPML)
				r.Delete("/{feedID}", s.handleDeleteFeed)
			})

			r.Route("/filter-rules", func(r chi.Router) {
				r.Get("/", s.handleListRules)
				r.Post("/", s.handleAddRule)
				r.Delete("/{ruleID}", s.handleDeleteRule)
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/export/rss/{feedID}", s.handleExportRSS)
		r.Get("/export/opml", s.handleExportOPML)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
