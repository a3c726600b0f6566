package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"mergington-activities/internal/activities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{}) { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) {
	l.errors = append(l.errors, msg)
}

func TestFromRegistryError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   ErrorCode
		wantStatus int
		wantDetail string
	}{
		{
			name:       "unknown activity",
			err:        fmt.Errorf("%w: x", activities.ErrActivityNotFound),
			wantCode:   ErrCodeActivityNotFound,
			wantStatus: http.StatusNotFound,
			wantDetail: "Activity not found",
		},
		{
			name:       "duplicate signup",
			err:        fmt.Errorf("%w: x", activities.ErrAlreadySignedUp),
			wantCode:   ErrCodeAlreadySignedUp,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Student already signed up for this activity",
		},
		{
			name:       "full activity",
			err:        fmt.Errorf("%w: x", activities.ErrActivityFull),
			wantCode:   ErrCodeActivityFull,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Activity is full",
		},
		{
			name:       "not registered",
			err:        fmt.Errorf("%w: x", activities.ErrNotRegistered),
			wantCode:   ErrCodeNotRegistered,
			wantStatus: http.StatusNotFound,
			wantDetail: "Student not registered for this activity",
		},
		{
			name:       "unexpected",
			err:        stderrors.New("boom"),
			wantCode:   ErrCodeInternal,
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr := FromRegistryError(tt.err, "Chess Club", "a@mergington.edu")
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantStatus, stdErr.HTTPStatus())
			assert.Equal(t, tt.wantDetail, stdErr.Message)
			assert.False(t, stdErr.Timestamp.IsZero())
		})
	}
}

func TestNormalize(t *testing.T) {
	original := NewActivityFullError("Tennis Club")
	assert.Same(t, original, Normalize(original))
	assert.Same(t, original, Normalize(fmt.Errorf("wrapped: %w", original)))

	internal := Normalize(stderrors.New("disk on fire"))
	assert.Equal(t, ErrCodeInternal, internal.Code)
	assert.Equal(t, "disk on fire", internal.Details)
}

func TestGetHTTPStatus_Unmapped(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("SOMETHING_ELSE"))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "ACTIVITY", GetErrorCategory(ErrCodeActivityNotFound))
	assert.Equal(t, "ACTIVITY", GetErrorCategory(ErrCodeActivityFull))
	assert.Equal(t, "ROSTER", GetErrorCategory(ErrCodeAlreadySignedUp))
	assert.Equal(t, "ROSTER", GetErrorCategory(ErrCodeNotRegistered))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestErrorHandler_HandleHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
		wantWarn   bool
	}{
		{
			name:       "client error logs warn",
			err:        NewNotRegisteredError("Basketball Team", "notregistered@mergington.edu"),
			wantStatus: http.StatusNotFound,
			wantDetail: "Student not registered for this activity",
			wantWarn:   true,
		},
		{
			name:       "validation error",
			err:        NewValidationError("email query parameter is required", ""),
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "email query parameter is required",
			wantWarn:   true,
		},
		{
			name:       "internal error logs error",
			err:        stderrors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			h := NewErrorHandler(log)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodDelete, "/activities/Basketball%20Team/signup", nil)

			h.HandleHTTPError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantDetail, body.Detail)
			if tt.wantWarn {
				assert.Len(t, log.warns, 1)
				assert.Empty(t, log.errors)
			} else {
				assert.Empty(t, log.warns)
				assert.Len(t, log.errors, 1)
			}
		})
	}
}
