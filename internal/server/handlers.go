package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/registry"
)

// apiResponse is the common envelope for API answers.
type apiResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// queriesPayload is the body shape for GET and PUT /api/queries.
type queriesPayload struct {
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
	Queries []model.Query `json:"queries"`
}

// leakView is the masked public shape of one leak entry.
type leakView struct {
	ID         string            `json:"id"`
	EntityType string            `json:"entity_type"`
	Entity     string            `json:"entity"`
	Status     string            `json:"status"`
	FoundAt    time.Time         `json:"found_at"`
	LastSeenAt time.Time         `json:"last_seen_at"`
	Summary    string            `json:"summary"`
	Details    map[string]string `json:"details"`
}

// leaksPayload is the body shape for GET /api/leaks.
type leaksPayload struct {
	OK     bool                     `json:"ok"`
	Items  []leakView               `json:"items"`
	Counts map[model.LeakStatus]int `json:"counts,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, apiResponse{OK: true, Message: "ok"})
}

// handleGetQueries returns the query registry. A missing registry file is
// an empty registry, not an error.
func (s *Server) handleGetQueries(w http.ResponseWriter, _ *http.Request) {
	queries, err := config.LoadQueries(s.queriesFile)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			s.writeJSON(w, http.StatusOK, queriesPayload{OK: true, Queries: []model.Query{}})
			return
		}
		s.logger.Error("failed to load queries", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, apiResponse{OK: false, Error: "failed to load queries"})
		return
	}
	s.writeJSON(w, http.StatusOK, queriesPayload{OK: true, Queries: queries})
}

// handlePutQueries replaces the whole query registry. The write is
// atomic, so a concurrent run sees either the old or the new set.
func (s *Server) handlePutQueries(w http.ResponseWriter, r *http.Request) {
	var payload queriesPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid JSON body"})
		return
	}
	if err := config.SaveQueries(s.queriesFile, payload.Queries); err != nil {
		switch {
		case errors.Is(err, config.ErrNoQueries),
			errors.Is(err, config.ErrDuplicateQuery),
			errors.Is(err, model.ErrEmptyQueryValue),
			errors.Is(err, model.ErrInvalidQueryType):
			s.writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
		default:
			s.logger.Error("failed to save queries", "error", err)
			s.writeJSON(w, http.StatusInternalServerError, apiResponse{OK: false, Error: "failed to save queries"})
		}
		return
	}
	s.writeJSON(w, http.StatusOK, queriesPayload{OK: true, Queries: payload.Queries})
}

// handleGetLeaks returns the masked leak entries, optionally filtered by
// ?status= and a case-insensitive substring ?q=. An unreachable store is
// 503; an empty result set is a normal 200.
func (s *Server) handleGetLeaks(w http.ResponseWriter, r *http.Request) {
	filter := registry.Filter{Term: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.LeakStatus(raw)
		if !status.IsValid() {
			s.writeJSON(w, http.StatusBadRequest, apiResponse{OK: false, Error: "unknown status " + raw})
			return
		}
		filter.Status = status
	}

	entries, err := s.leaks.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list leaks", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, apiResponse{OK: false, Error: "leak store unavailable"})
		return
	}
	counts, err := s.leaks.Counts(r.Context())
	if err != nil {
		s.logger.Error("failed to count leaks", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, apiResponse{OK: false, Error: "leak store unavailable"})
		return
	}

	items := make([]leakView, 0, len(entries))
	for _, entry := range entries {
		items = append(items, leakView{
			ID:         entry.ID,
			EntityType: entry.EntityType.String(),
			Entity:     entry.Entity,
			Status:     entry.Status.String(),
			FoundAt:    entry.FoundAt,
			LastSeenAt: entry.LastSeenAt,
			Summary:    entry.Summary,
			Details:    entry.MaskedDetails(),
		})
	}
	s.writeJSON(w, http.StatusOK, leaksPayload{OK: true, Items: items, Counts: counts})
}

// handleRunNow schedules an immediate monitoring run. The request is
// accepted even when a run is already pending; it coalesces into the
// queued trigger.
func (s *Server) handleRunNow(w http.ResponseWriter, _ *http.Request) {
	select {
	case s.trigger <- struct{}{}:
	default:
		// A trigger is already queued.
	}
	s.writeJSON(w, http.StatusAccepted, apiResponse{OK: true, Message: "run scheduled"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
