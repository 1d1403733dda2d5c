// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/ingestion"
	"github.com/poiesic/lostfound/search"
)

const (
	// DefaultMaxUploadBytes bounds multipart uploads and search bodies.
	DefaultMaxUploadBytes = 10 << 20

	// DefaultRequestTimeout bounds a single request.
	DefaultRequestTimeout = 60 * time.Second
)

// Catalog is the item and user store behind the API.
type Catalog interface {
	ListItemsByType(ctx context.Context, itemType core.ItemType, limit int) ([]*core.Item, error)
	GetItem(ctx context.Context, id core.ID) (*core.Item, error)
	DeleteItem(ctx context.Context, id core.ID, requester core.ID) error
	CreateUser(ctx context.Context, username, email, password string, admin bool) (*core.User, error)
	Authenticate(ctx context.Context, username, password string) (*core.User, error)
	ReportItem(ctx context.Context, itemID, reporter core.ID, reportType core.ReportType, comment string) (*core.Report, error)
}

// Searcher ranks items for a query.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]*core.SearchResult, error)
}

// Uploader stores new items.
type Uploader interface {
	Upload(ctx context.Context, req ingestion.UploadRequest) (*core.Item, error)
}

// Server serves the HTTP API.
type Server struct {
	catalog        Catalog
	searcher       Searcher
	uploader       Uploader
	detector       ai.Detector
	validate       *validator.Validate
	router         chi.Router
	maxUploadBytes int64
	requestTimeout time.Duration
	corsOrigins    []string
	logger         *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMaxUploadBytes bounds request bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) error {
		if n <= 0 {
			return errors.New("max upload bytes must be positive")
		}
		s.maxUploadBytes = n
		return nil
	}
}

// WithRequestTimeout bounds each request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		s.requestTimeout = d
		return nil
	}
}

// WithCORSOrigins sets the allowed CORS origins. Default is "*".
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) error {
		s.corsOrigins = origins
		return nil
	}
}

// WithDetector enables POST /api/detect. Without a detector the route
// answers 503.
func WithDetector(detector ai.Detector) Option {
	return func(s *Server) error {
		s.detector = detector
		return nil
	}
}

// NewServer creates the API server and builds its routes.
func NewServer(catalog Catalog, searcher Searcher, uploader Uploader, opts ...Option) (*Server, error) {
	if catalog == nil || searcher == nil || uploader == nil {
		return nil, errors.New("api: catalog, searcher and uploader are required")
	}

	s := &Server{
		catalog:        catalog,
		searcher:       searcher,
		uploader:       uploader,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		maxUploadBytes: DefaultMaxUploadBytes,
		requestTimeout: DefaultRequestTimeout,
		corsOrigins:    []string{"*"},
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "api")
	s.router = s.routes()

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/detect", s.handleDetect)
		r.Post("/users", s.handleCreateUser)
		r.Post("/reports", s.handleReport)

		r.Route("/items", func(r chi.Router) {
			r.Post("/", s.handleUpload)
			r.Get("/lost", s.handleList(core.ItemTypeLost))
			r.Get("/found", s.handleList(core.ItemTypeFound))
			r.Get("/{id}", s.handleGetItem)
			r.Delete("/{id}", s.handleDeleteItem)
		})
	})

	return r
}

// logRequests logs each request once it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
