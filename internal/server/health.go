package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"mergington-activities/internal/common/errors"
	apphttp "mergington-activities/internal/common/http"
	"mergington-activities/internal/models"
)

const (
	readyCheckTimeout  = 2 * time.Second
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// Check is a named readiness probe, e.g. a database ping.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	apphttp.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	results := make(map[string]string, len(s.opts.Checks))
	for _, check := range s.opts.Checks {
		if err := check.Fn(ctx); err != nil {
			results[check.Name] = err.Error()
			status = "not ready"
			code = http.StatusServiceUnavailable
			s.logger.Warn("readiness check failed", map[string]interface{}{
				"check": check.Name,
				"error": err,
			})
			continue
		}
		results[check.Name] = "ok"
	}

	apphttp.WriteJSON(w, code, map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
		"checks": results,
	})
}

func (s *Server) recentEnrollments(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentLimit {
			errors.WriteHTTPError(w, errors.NewValidationError(
				"limit must be an integer between 1 and "+strconv.Itoa(maxRecentLimit), raw))
			return
		}
		limit = n
	}

	events, err := s.opts.Recent.Recent(r.Context(), limit)
	if err != nil {
		errors.NewErrorHandler(s.logger).HandleHTTPError(w, r, errors.NewInternalError(err))
		return
	}
	if events == nil {
		events = []models.EnrollmentEvent{}
	}
	apphttp.WriteJSON(w, http.StatusOK, events)
}
