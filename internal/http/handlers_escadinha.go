package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"metas/internal/core"
	"metas/internal/export"
	"metas/internal/log"
)

// handleComputeEscadinha runs the accumulator over twelve ad-hoc values.
func (s *Server) handleComputeEscadinha(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	months, err := req.toMonths()
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	esc, err := s.escadinha.Compute(months)
	if err != nil {
		s.writeError(w, r, log.OpCompute, err)
		return
	}
	writeJSON(w, http.StatusOK, toEscadinha(esc))
}

func (s *Server) handleProducerEscadinha(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	esc, err := s.escadinha.ForProducer(r.Context(), r.PathValue("producerID"), year)
	if err != nil {
		s.writeError(w, r, log.OpCompute, err)
		return
	}
	writeJSON(w, http.StatusOK, toEscadinha(esc))
}

func (s *Server) handleYearEscadinha(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	reports, err := s.escadinha.BuildYear(r.Context(), year)
	if err != nil {
		s.writeError(w, r, log.OpCompute, err)
		return
	}
	writeJSON(w, http.StatusOK, toEscadinhas(reports))
}

// handleExportEscadinha streams the year's table as an xlsx (default) or
// csv attachment. The file is rendered in memory first so a failure can
// still be reported as JSON.
func (s *Server) handleExportEscadinha(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	format := export.FormatXLSX
	if v := r.URL.Query().Get("format"); v != "" {
		if format, err = export.ParseFormat(v); err != nil {
			writeJSONError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	table, err := s.exports.Table(r.Context(), year)
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteTo(&buf, table, format); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	s.events.LogExport(r.Context(), year, string(format), len(table.Rows))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(year, format)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleSyncEscadinha queues an export of the year to the configured
// external target and answers 202 with the job id.
func (s *Server) handleSyncEscadinha(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	jobID, err := s.exports.RequestSync(r.Context(), year)
	if err != nil {
		s.writeError(w, r, log.OpPublish, err)
		return
	}
	writeJSON(w, http.StatusAccepted, syncResponse{JobID: jobID, Year: year, Status: "pending"})
}

type pageRow struct {
	Producer  string
	Monthly   [core.MonthsInYear]int64
	Staircase [core.MonthsInYear]int64
	Total     int64
	Jump      string
}

// handleEscadinhaPage renders the year's staircase table as HTML.
func (s *Server) handleEscadinhaPage(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	year, err := parseYear(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reports, err := s.escadinha.BuildYear(r.Context(), year)
	if err != nil && !errors.Is(err, export.ErrNoData) {
		s.events.LogError(r.Context(), "Escadinha page failed", err, log.OpCompute, log.NewFields())
		http.Error(w, "failed to load escadinha", http.StatusInternalServerError)
		return
	}

	data := struct {
		Year     int
		PrevYear int
		NextYear int
		Months   [core.MonthsInYear]string
		Rows     []pageRow
	}{Year: year, PrevYear: year - 1, NextYear: year + 1, Months: core.MonthLabels}
	for _, e := range reports {
		row := pageRow{
			Producer:  e.Goal.DisplayName(),
			Monthly:   e.Monthly,
			Staircase: e.Staircase,
			Total:     e.Insights.TotalAnnual.Cents,
		}
		if j := e.Insights.LargestJump; j != nil {
			row.Jump = j.From + " → " + j.To + " (" + j.Amount.String() + ")"
		}
		data.Rows = append(data.Rows, row)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "escadinha.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", log.FieldError, err, "template", "escadinha.html")
	}
}
