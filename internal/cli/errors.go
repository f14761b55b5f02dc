package cli

import (
	"errors"
	"io/fs"

	"github.com/visioncreator-works/nango/internal/schema"
	"github.com/visioncreator-works/nango/internal/typeexpr"
)

// classifyError maps the loader/codegen error taxonomy onto CLI error
// codes. Schema violations stay coarse-grained; field expression errors
// carry the model- and field-scoped message as-is.
func classifyError(err error) (string, string) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return ErrCodeSchema, verr.Error()
	}
	var merr *schema.ModelInvariantError
	if errors.As(err, &merr) {
		return ErrCodeModelID, merr.Error()
	}
	var ferr *typeexpr.FieldError
	if errors.As(err, &ferr) {
		return ErrCodeFieldExpr, ferr.Error()
	}
	if errors.Is(err, fs.ErrNotExist) {
		return ErrCodeNotFound, err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// classifyWriteError classifies errors from artifact emission. Schema and
// expression errors keep their own codes; filesystem failures become
// write errors instead of falling through to the generic code.
func classifyWriteError(err error) (string, string) {
	code, message := classifyError(err)
	if code == ErrCodeGeneric {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return ErrCodeWriteFail, message
		}
	}
	return code, message
}
