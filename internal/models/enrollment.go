// internal/models/enrollment.go
package models

import "time"

type EnrollmentEventType string

const (
	EnrollmentSignup     EnrollmentEventType = "signup"
	EnrollmentUnregister EnrollmentEventType = "unregister"
)

// EnrollmentEvent describes one successful roster change.
type EnrollmentEvent struct {
	ID         string              `json:"id"`
	Type       EnrollmentEventType `json:"type"`
	Activity   string              `json:"activity"`
	Email      string              `json:"email"`
	OccurredAt time.Time           `json:"occurred_at"`
	RequestID  string              `json:"request_id,omitempty"`
}
