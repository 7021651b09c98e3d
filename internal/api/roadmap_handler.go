// File path: internal/api/roadmap_handler.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nextsteplk/pathway/internal/roadmap"
)

func programParam(r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "program")
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	name = strings.TrimSpace(name)
	return name, name != ""
}

func (s *Server) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	program, ok := programParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "program name is required")
		return
	}
	result, err := s.orc.Roadmaps().GetRoadmap(r.Context(), program)
	if err != nil {
		writeRoadmapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRoadmapFast(w http.ResponseWriter, r *http.Request) {
	program, ok := programParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "program name is required")
		return
	}
	result, err := s.orc.Roadmaps().GetRoadmapFast(r.Context(), program)
	if err != nil {
		writeRoadmapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type stepVideosRequest struct {
	StepNumber int      `json:"step_number"`
	Topics     []string `json:"topics,omitempty"`
}

// handleStepVideos decorates one step of an already cached roadmap with
// videos on demand.
func (s *Server) handleStepVideos(w http.ResponseWriter, r *http.Request) {
	program, ok := programParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "program name is required")
		return
	}
	var req stepVideosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StepNumber <= 0 {
		writeError(w, http.StatusBadRequest, "step_number must be positive")
		return
	}
	found, err := s.orc.Roadmaps().VideosForStep(r.Context(), program, req.StepNumber, req.Topics)
	if err != nil {
		if errors.Is(err, roadmap.ErrNotCached) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"program":     program,
		"step_number": req.StepNumber,
		"count":       len(found),
		"videos":      found,
	})
}

func writeRoadmapError(w http.ResponseWriter, err error) {
	if errors.Is(err, roadmap.ErrGeneration) {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
