package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"metas/internal/amqp"
	"metas/internal/core"
	"metas/internal/export"
	"metas/internal/log"
	"metas/internal/middleware/trace"
	"metas/internal/services"
	"metas/internal/sheets"
)

var templateFuncs = template.FuncMap{
	"brl": core.FormatBRL,
}

// parseYear reads the year query parameter, defaulting to the current year.
func parseYear(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return time.Now().Year(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < 2000 || y > 2100 {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidYear, v)
	}
	return y, nil
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: trace.GetRequestID(r.Context())})
}

// writeError maps a service error onto a status code. Unexpected errors are
// logged and answered with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     "validation failed",
			Fields:    fieldErrors(verrs),
			RequestID: trace.GetRequestID(r.Context()),
		})
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrInvalidYear),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrEmptyProducer),
		errors.Is(err, core.ErrNegativeGoal),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrEmptyCNPJ),
		errors.Is(err, core.ErrInvalidPremium):
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, sheets.ErrNotFound), errors.Is(err, export.ErrNoData):
		writeJSONError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrSyncUnavailable), errors.Is(err, amqp.ErrCircuitOpen):
		writeJSONError(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		s.events.LogError(r.Context(), "Request failed", err, op, log.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
		writeJSONError(w, r, http.StatusInternalServerError, "internal error")
	}
}
