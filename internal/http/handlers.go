package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"metas/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady runs every registered readiness check with a shared timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.checks)+1)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":         status,
		"timestamp":      time.Now().Format(time.RFC3339),
		"checks":         checks,
		"active_clients": s.rateLimiter.ActiveClients(),
	})
}

func (s *Server) handleListProducers(w http.ResponseWriter, r *http.Request) {
	producers, err := s.goals.ListProducers(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toProducers(producers))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	goals, err := s.goals.ListGoals(r.Context(), year)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoals(goals))
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r)
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	goal, err := s.goals.GetGoal(r.Context(), r.PathValue("producerID"), year)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoal(goal))
}

// handleSaveGoal upserts the goal of one producer for the body's year.
func (s *Server) handleSaveGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	goal, err := req.toGoal(r.PathValue("producerID"))
	if err != nil {
		s.writeError(w, r, log.OpValidate, err)
		return
	}
	if err := s.goals.SaveGoal(r.Context(), goal); err != nil {
		s.writeError(w, r, log.OpSave, err)
		return
	}
	if s.metrics != nil {
		s.metrics.GoalsSaved.Inc()
	}
	s.events.LogGoalSaved(r.Context(), goal.ProducerID, goal.ProducerName, goal.Year, goal.Total().Cents)

	saved, err := s.goals.GetGoal(r.Context(), goal.ProducerID, goal.Year)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoal(saved))
}
