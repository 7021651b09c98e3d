// File path: internal/api/cache_handler.go
package api

import (
	"net/http"
)

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.orc.Cache().Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCacheRefresh(w http.ResponseWriter, r *http.Request) {
	program, ok := programParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "program name is required")
		return
	}
	result, err := s.orc.Roadmaps().Refresh(r.Context(), program)
	if err != nil {
		writeRoadmapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCacheDelete(w http.ResponseWriter, r *http.Request) {
	program, ok := programParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "program name is required")
		return
	}
	deleted, err := s.orc.Cache().Delete(r.Context(), program)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"program": program,
		"deleted": deleted,
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.orc.Cache().Clear(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": n})
}
