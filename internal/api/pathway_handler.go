// File path: internal/api/pathway_handler.go
package api

import (
	"net/http"
	"strings"

	"github.com/nextsteplk/pathway/internal/pathway"
)

// handlePathways resolves programs reachable from a qualification, optionally
// filtered by department substring. An empty result is a 200 with an empty
// list, not an error.
func (s *Server) handlePathways(w http.ResponseWriter, r *http.Request) {
	qualification := strings.TrimSpace(r.URL.Query().Get("qualification"))
	if qualification == "" {
		writeError(w, http.StatusBadRequest, "qualification query parameter is required")
		return
	}
	department := strings.TrimSpace(r.URL.Query().Get("department"))

	programs, err := s.orc.Resolver().ResolvePathway(r.Context(), department, qualification)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if programs == nil {
		programs = []pathway.ProgramDetails{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"qualification": qualification,
		"department":    department,
		"count":         len(programs),
		"programs":      programs,
	})
}
