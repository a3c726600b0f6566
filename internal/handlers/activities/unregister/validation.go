// internal/handlers/activities/unregister/validation.go
package unregister

import (
	"strings"

	"mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/validation"
)

func validateInput(input *Input) error {
	result := validation.ValidateEnrollmentRequest(input.Activity, input.Email, input.EmailPresent)
	if result.Valid {
		return nil
	}
	return errors.NewValidationError(result.FirstMessage(), strings.Join(result.GetErrorMessages(), "; "))
}
