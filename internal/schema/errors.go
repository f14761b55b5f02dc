package schema

import "fmt"

// ValidationMessage is the single user-facing message for structural
// violations of either dialect grammar. It is intentionally generic;
// field-level detail is reported at the type-compile stage instead.
const ValidationMessage = "Problem validating the nango.yaml file."

// ValidationError is a structural violation of the dialect grammar.
//
// Error() returns only the generic message. Detail carries the precise
// cause for verbose diagnostics and tests; callers must not surface it.
type ValidationError struct {
	Message string `json:"message"`
	Detail  string `json:"-"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{
		Message: ValidationMessage,
		Detail:  fmt.Sprintf(format, args...),
	}
}

// ModelInvariantError reports a Sync output model without an id field.
// Fatal for the schema load.
type ModelInvariantError struct {
	Model string `json:"model"`
}

func (e *ModelInvariantError) Error() string {
	return fmt.Sprintf("Model %q doesn't have an id field. This is required to be able to uniquely identify the data record.", e.Model)
}
