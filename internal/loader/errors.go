package loader

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// ValidationError reports a fixture rejected by the schema.
type ValidationError struct {
	Message string
	Pos     token.Pos
	// Details lists every schema violation.
	Details []string
}

func (e *ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: invalid fixture: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return "invalid fixture: " + e.Message
}

// validationError converts a CUE error, keeping the first position found.
func validationError(err error) *ValidationError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error(), Details: []string{err.Error()}}
	}

	ve := &ValidationError{Message: errs[0].Error()}
	for _, e := range errs {
		ve.Details = append(ve.Details, e.Error())
		if !ve.Pos.IsValid() {
			if positions := errors.Positions(e); len(positions) > 0 {
				ve.Pos = positions[0]
			}
		}
	}
	return ve
}
