// internal/handlers/activities/list-activities/handler.go
package listactivities

import (
	"context"
	"net/http"

	"mergington-activities/internal/common/errors"
	apphttp "mergington-activities/internal/common/http"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/models"
)

const Operation = "list-activities"

// Lister is implemented by *activities.Registry.
type Lister interface {
	List() map[string]models.Activity
	Get(name string) (models.Activity, bool)
}

type Handler struct {
	config   *Config
	registry Lister
	errs     *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, registry Lister, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	l := log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:   config,
		registry: registry,
		errs:     errors.NewErrorHandler(l),
		logger:   l,
	}
}

// ServeHTTP serves GET /activities.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	output, err := h.Execute(r.Context())
	if err != nil {
		h.errs.HandleHTTPError(w, r, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, output)
}

// ServeActivity serves GET /activities/{name}.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.ExecuteOne(r.Context(), r.PathValue("name"))
	if err != nil {
		h.errs.HandleHTTPError(w, r, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, activity)
}

// Execute returns a snapshot of every activity. Reads never block, so a
// cancelled ctx does not turn into a failure.
func (h *Handler) Execute(ctx context.Context) (Output, error) {
	output := Output(h.registry.List())
	h.logger.Debug("activities listed", map[string]interface{}{
		"count": len(output),
	})
	return output, nil
}

func (h *Handler) ExecuteOne(ctx context.Context, name string) (models.Activity, error) {
	activity, ok := h.registry.Get(name)
	if !ok {
		return models.Activity{}, errors.NewActivityNotFoundError(name)
	}
	return activity, nil
}
