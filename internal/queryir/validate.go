package queryir

import (
	"errors"
	"fmt"
)

// Validate reports every structural problem in r, joined into one error.
// Returns nil for a valid request.
//
// Validate is a pure function with no side effects.
func Validate(r Request) error {
	var errs []error

	for i, p := range r.KeyPrefixes {
		if p == "" {
			errs = append(errs, fmt.Errorf("key prefix %d: empty prefix", i))
		}
	}
	for i, f := range r.Filters {
		switch f.Condition.(type) {
		case Equals, GreaterThanOrEqual, LessThanOrEqual:
		case nil:
			errs = append(errs, fmt.Errorf("filter %d (index %d): nil condition", i, f.Index))
		default:
			errs = append(errs, fmt.Errorf("filter %d (index %d): unsupported condition %T", i, f.Index, f.Condition))
		}
	}
	if r.Range != nil {
		if r.Range.Offset < 0 {
			errs = append(errs, fmt.Errorf("range: negative offset %d", r.Range.Offset))
		}
		if r.Range.Limit < 0 {
			errs = append(errs, fmt.Errorf("range: negative limit %d", r.Range.Limit))
		}
	}

	return errors.Join(errs...)
}
