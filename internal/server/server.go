package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/recollect/internal/engine"
	"github.com/lazypower/recollect/internal/errutil"
)

// Server is the recollect HTTP API server.
type Server struct {
	eng     *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server over the given engine and version string.
func New(eng *engine.Engine, version string) *Server {
	s := &Server{
		eng:     eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/memories", s.handleAddMemory)
		r.Get("/memories/search", s.handleSearch)
		r.Get("/memories/{id}", s.handleGetMemory)
		r.Post("/decay", s.handleDecay)
		r.Post("/prune", s.handlePrune)
		r.Get("/export", s.handleExport)
		r.Get("/stats", s.handleStats)

		r.Post("/sessions", s.handleSaveSession)
		r.Get("/sessions", s.handleListSessions)
	})

	s.router = r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.eng.Log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := s.eng.DB.Ping() == nil

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.eng.DB.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errutil.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errutil.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errutil.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		errutil.Handle(s.eng.Log, err, "request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
