// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nextsteplk/pathway/internal/common"
	"github.com/nextsteplk/pathway/internal/data/orchestrator"
)

// Server exposes the pathway and roadmap services over HTTP.
type Server struct {
	orc    *orchestrator.Orchestrator
	router chi.Router
}

// NewServer wires the routes over an orchestrator.
func NewServer(orc *orchestrator.Orchestrator) *Server {
	s := &Server{orc: orc}
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/pathways", s.handlePathways)
		r.Route("/roadmap/{program}", func(r chi.Router) {
			r.Get("/", s.handleRoadmap)
			r.Get("/fast", s.handleRoadmapFast)
			r.Post("/videos", s.handleStepVideos)
		})
		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", s.handleCacheStats)
			r.Delete("/", s.handleCacheClear)
			r.Post("/{program}/refresh", s.handleCacheRefresh)
			r.Delete("/{program}", s.handleCacheDelete)
		})
		r.Get("/logs", s.handleLogs)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		common.Logger().Info("api: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"graph_available": s.orc.Graph().Available(),
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		common.Logger().Error("api: encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
