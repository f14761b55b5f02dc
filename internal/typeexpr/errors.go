package typeexpr

import "fmt"

// FieldError is a fine-grained, field-and-model-scoped expression error.
// Unlike schema validation it always names the offending model and field.
type FieldError struct {
	Model string
	Raw   string
	kind  errKind
	token string
}

type errKind int

const (
	errTrailingPunct errKind = iota
	errUnknownType
	errMalformed
)

func (e *FieldError) Error() string {
	switch e.kind {
	case errTrailingPunct:
		return fmt.Sprintf("Field %q in the model %s ends with a comma or semicolon which is not allowed.", e.Raw, e.Model)
	case errUnknownType:
		return fmt.Sprintf("Field %q in the model %s references the unknown type %q.", e.Raw, e.Model, e.token)
	default:
		return fmt.Sprintf("Field %q in the model %s is not a valid type expression.", e.Raw, e.Model)
	}
}

// parseError is the unscoped form produced inside the parser; CompileField
// attaches the model and the full raw expression.
type parseError struct {
	kind  errKind
	token string
}

func (e *parseError) Error() string {
	if e.token != "" {
		return fmt.Sprintf("unknown type %q", e.token)
	}
	return "malformed type expression"
}
