package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pagekeep/pagekeep/internal/chapterview"
	"github.com/pagekeep/pagekeep/internal/config"
	"github.com/pagekeep/pagekeep/internal/pipeline"
	"github.com/pagekeep/pagekeep/internal/storage"
	"github.com/pagekeep/pagekeep/internal/store"
	"github.com/pagekeep/pagekeep/internal/userdocs"
)

// Server is the HTTP API server.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	files        *storage.Store
	meta         *store.Store
	notes        *userdocs.Service
	renderer     *chapterview.Service
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, files *storage.Store, meta *store.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		files:        files,
		meta:         meta,
		notes:        userdocs.NewService(files, meta, log),
		renderer:     chapterview.NewService(log),
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/stats", s.handleStats)

		r.Route("/api/documents", func(r chi.Router) {
			r.Post("/", s.handleUpload)
			r.Get("/", s.handleListDocuments)

			r.Route("/{slug}", func(r chi.Router) {
				r.Get("/", s.handleGetDocument)
				r.Delete("/", s.handleDeleteDocument)
				r.Get("/status/{jobID}", s.handleJobStatus)

				r.Get("/toc", s.handleTOC)
				r.Get("/chapters/{number}", s.handleChapter)
				r.Get("/backlinks", s.handleBacklinks)
				r.Get("/graph", s.handleGraph)
				r.Get("/search", s.handleSearch)

				r.Post("/notes", s.handleCreateNote)
				r.Get("/notes", s.handleListNotes)
				r.Get("/notes/{name}", s.handleGetNote)
				r.Put("/notes/{name}", s.handleUpdateNote)
				r.Delete("/notes/{name}", s.handleDeleteNote)
			})
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	docs, err := s.meta.ListDocuments()
	if err != nil {
		jsonError(w, "failed to count documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents":   len(docs),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
