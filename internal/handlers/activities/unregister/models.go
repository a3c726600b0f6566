// internal/handlers/activities/unregister/models.go
package unregister

type Input struct {
	Activity string
	Email    string
	// EmailPresent is false when the email query parameter was omitted.
	EmailPresent bool
	RequestID    string
}

type Output struct {
	Message string `json:"message"`
}
