package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/callcoach/internal/summary"
)

const defaultArchiveLimit = 20

func (s *Server) handleListArchived(w http.ResponseWriter, r *http.Request) {
	limit := defaultArchiveLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	records, err := s.service.ListArchived(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"calls": records, "count": len(records)})
}

func (s *Server) handleGetArchived(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.GetArchived(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleArchivedSummary(w http.ResponseWriter, r *http.Request) {
	focus, err := summary.ParseFocus(r.URL.Query().Get("focus"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_focus", err.Error())
		return
	}
	res, err := s.service.SummarizeArchived(r.Context(), chi.URLParam(r, "id"), focus)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
