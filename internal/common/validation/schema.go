package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// EnrollmentRequestSchema describes the input of signup and unregister. Only
// the presence of email is enforced; its value is matched against the roster
// as is, so an unknown activity still reports not found.
const EnrollmentRequestSchema = `{
  "type": "object",
  "properties": {
    "activity": {"type": "string"},
    "email": {"type": "string"}
  },
  "required": ["activity", "email"]
}`

var enrollmentRequestLoader = gojsonschema.NewStringLoader(EnrollmentRequestSchema)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validate checks document against a JSON schema. document may be any value
// encoding/json can marshal. A non-nil error means the schema itself is broken.
func Validate(document interface{}, schema gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, re := range result.Errors() {
		out.Errors = append(out.Errors, convert(re))
	}
	return out, nil
}

// ValidateJSON is Validate with the schema given as a JSON string.
func ValidateJSON(document interface{}, schemaJSON string) (*ValidationResult, error) {
	return Validate(document, gojsonschema.NewStringLoader(schemaJSON))
}

// ValidateEnrollmentRequest validates the activity name and email of a roster
// change. present reports whether the email parameter was supplied at all.
func ValidateEnrollmentRequest(activity, email string, present bool) *ValidationResult {
	doc := map[string]interface{}{"activity": activity}
	if present {
		doc["email"] = email
	}

	result, err := Validate(doc, enrollmentRequestLoader)
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "SCHEMA_ERROR"}},
		}
	}
	return result
}

func convert(re gojsonschema.ResultError) ValidationError {
	field := re.Field()
	if re.Type() == "required" {
		if p, ok := re.Details()["property"].(string); ok {
			field = p
		}
	}

	switch re.Type() {
	case "required":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field), Code: "REQUIRED_FIELD_MISSING"}
	case "string_gte":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must not be empty", field), Code: "MIN_LENGTH_VIOLATION"}
	case "string_lte":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %v characters", field, re.Details()["max"]), Code: "MAX_LENGTH_VIOLATION"}
	case "invalid_type":
		return ValidationError{Field: field, Message: re.Description(), Code: "INVALID_TYPE"}
	default:
		return ValidationError{Field: field, Message: re.Description(), Code: strings.ToUpper(re.Type())}
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// FirstMessage returns the first error message, or "" for a valid result.
func (vr *ValidationResult) FirstMessage() string {
	if len(vr.Errors) == 0 {
		return ""
	}
	return vr.Errors[0].Message
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
