package http

import (
	"net/http"
	"strings"

	"metas/internal/log"
)

func (s *Server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	q, err := req.toQuote()
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	id, err := s.quotes.AddQuote(r.Context(), q)
	if err != nil {
		s.writeError(w, r, log.OpSave, err)
		return
	}
	w.Header().Set("Location", "/api/quotes/summary?year="+q.Date.Format("2006"))
	writeJSON(w, http.StatusCreated, quoteCreatedResponse{ID: id})
}

func (s *Server) handleQuoteSummary(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	sum, err := s.quotes.Summary(r.Context(), year)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteSummary(sum))
}

// handleAttainment compares one producer's goal with their closed premiums.
func (s *Server) handleAttainment(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	producerID := strings.TrimSpace(r.PathValue("producerID"))
	att, err := s.quotes.Attainment(r.Context(), producerID, year)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttainment(att))
}
