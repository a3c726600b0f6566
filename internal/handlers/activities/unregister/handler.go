// internal/handlers/activities/unregister/handler.go
package unregister

import (
	"context"
	"net/http"
	"time"

	"mergington-activities/internal/audit"
	"mergington-activities/internal/common/errors"
	apphttp "mergington-activities/internal/common/http"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
	"mergington-activities/internal/common/observability"
	"mergington-activities/internal/models"

	"github.com/google/uuid"
)

const Operation = "unregister"

// Withdrawer is implemented by *activities.Registry.
type Withdrawer interface {
	Unregister(name, email string) (string, error)
}

type Handler struct {
	config   *Config
	registry Withdrawer
	sink     audit.Sink
	obs      *observability.Observability
	errs     *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, registry Withdrawer, sink audit.Sink, obs *observability.Observability, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	if sink == nil {
		sink = audit.Nop{}
	}
	l := log.WithFields(map[string]interface{}{"operation": Operation})
	return &Handler{
		config:   config,
		registry: registry,
		sink:     sink,
		obs:      obs,
		errs:     errors.NewErrorHandler(l),
		logger:   l,
	}
}

// ServeHTTP serves DELETE /activities/{name}/signup?email=.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	input := &Input{
		Activity:     r.PathValue("name"),
		Email:        query.Get("email"),
		EmailPresent: query.Has("email"),
		RequestID:    apphttp.RequestIDFromContext(r.Context()),
	}

	output, err := h.Execute(r.Context(), input)
	if err != nil {
		h.errs.HandleHTTPError(w, r, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	if err := validateInput(input); err != nil {
		h.obs.RecordEnrollment(ctx, Operation, observability.OutcomeRejected, time.Since(start))
		return nil, err
	}

	message, err := h.registry.Unregister(input.Activity, input.Email)
	if err != nil {
		stdErr := errors.FromRegistryError(err, input.Activity, input.Email)
		outcome := observability.OutcomeError
		if errors.IsClientError(stdErr.Code) {
			outcome = observability.OutcomeRejected
		}
		h.obs.RecordEnrollment(ctx, Operation, outcome, time.Since(start))
		return nil, stdErr
	}

	h.logger.Info("student unregistered", map[string]interface{}{
		"activity":  input.Activity,
		"email":     input.Email,
		"requestId": input.RequestID,
	})

	h.emit(ctx, input)
	h.obs.RecordEnrollment(ctx, Operation, observability.OutcomeSuccess, time.Since(start))

	return &Output{Message: message}, nil
}

func (h *Handler) emit(ctx context.Context, input *Input) {
	event := models.EnrollmentEvent{
		ID:         uuid.NewString(),
		Type:       models.EnrollmentUnregister,
		Activity:   input.Activity,
		Email:      input.Email,
		OccurredAt: time.Now().UTC(),
		RequestID:  input.RequestID,
	}

	timeout := h.config.SinkTimeout
	if timeout <= 0 {
		timeout = LoadConfig().SinkTimeout
	}
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := h.sink.Record(sinkCtx, event); err != nil {
		metrics.EnrollmentSinkFailures.WithLabelValues(Operation).Inc()
		h.logger.Warn("enrollment event not recorded", map[string]interface{}{
			"eventId":  event.ID,
			"activity": event.Activity,
			"error":    err,
		})
	}
}
