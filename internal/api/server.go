package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/tablegest/internal/cleanup"
	"github.com/dgallion1/tablegest/internal/config"
	"github.com/dgallion1/tablegest/internal/pipeline"
	"github.com/dgallion1/tablegest/internal/store"
)

// Server is the HTTP API server for tablegest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        store.Store
	cleaner      *cleanup.Adapter
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, st store.Store, cleaner *cleanup.Adapter, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        st,
		cleaner:      cleaner,
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
	r.Use(CORSMiddleware(s.cfg.CORSOrigins))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints; open when no API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/upload", s.handleUpload)
		r.Post("/api/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/history", s.handleHistory)
		r.Get("/api/result/{id}", s.handleResult)
		r.Delete("/api/result/{id}", s.handleDeleteResult)

		r.Get("/api/download/{id}.json", s.handleDownloadJSON)
		r.Get("/api/export/{id}/table.csv", s.handleExportTable)
		r.Get("/api/export/{id}/all.{format}", s.handleExportAll)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
