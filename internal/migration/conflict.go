package migration

import (
	"errors"
	"fmt"
)

// ErrInvalidConflictResolution is returned for a resolution that cannot be
// applied, such as a Rename whose fallback is itself a Rename.
var ErrInvalidConflictResolution = errors.New("invalid conflict resolution")

// ConflictResolution decides what happens when a visited entity's new key is
// already taken. Implemented by Overwrite, Remove, Skip and Rename.
type ConflictResolution interface {
	conflictResolution()
	String() string
}

// Overwrite writes the visited entity over the existing record.
type Overwrite struct{}

// Remove drops the visited entity: it is not written and its original
// record is removed.
type Remove struct{}

// Skip leaves the visited entity's original record as it was.
type Skip struct{}

// Rename asks the entity to pick a different key through
// entity.KeyConflictResolver. Entities that cannot, or that run out of
// attempts, get Fallback instead.
type Rename struct {
	Fallback ConflictResolution
}

func (Overwrite) conflictResolution() {}
func (Remove) conflictResolution()    {}
func (Skip) conflictResolution()      {}
func (Rename) conflictResolution()    {}

func (Overwrite) String() string { return "overwrite" }
func (Remove) String() string    { return "remove" }
func (Skip) String() string      { return "skip" }

func (r Rename) String() string {
	if r.Fallback == nil {
		return "rename"
	}
	return "rename(" + r.Fallback.String() + ")"
}

// ParseConflictResolution parses the String form of a resolution, e.g.
// "skip" or "rename(remove)".
func ParseConflictResolution(s string) (ConflictResolution, error) {
	var cr ConflictResolution
	switch s {
	case "overwrite":
		cr = Overwrite{}
	case "remove":
		cr = Remove{}
	case "skip":
		cr = Skip{}
	case "rename(overwrite)":
		cr = Rename{Fallback: Overwrite{}}
	case "rename(remove)":
		cr = Rename{Fallback: Remove{}}
	case "rename(skip)":
		cr = Rename{Fallback: Skip{}}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidConflictResolution, s)
	}
	return cr, nil
}

func validateResolution(cr ConflictResolution) error {
	switch r := cr.(type) {
	case Overwrite, Remove, Skip:
		return nil
	case Rename:
		switch r.Fallback.(type) {
		case Overwrite, Remove, Skip:
			return nil
		case nil:
			return fmt.Errorf("%w: rename without fallback", ErrInvalidConflictResolution)
		default:
			return fmt.Errorf("%w: rename fallback must not be %s", ErrInvalidConflictResolution, r.Fallback)
		}
	case nil:
		return fmt.Errorf("%w: none given", ErrInvalidConflictResolution)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidConflictResolution, cr)
	}
}
