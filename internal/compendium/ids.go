package compendium

import (
	"fmt"
	"strings"

	"github.com/Thomvis/Construct-sub002/internal/entity"
)

// validateID rejects identity components that would make keys ambiguous:
// "a" + "b::c" and "a::b" + "c" compose to the same key.
func validateID(kind, id string) error {
	if id == "" || strings.Contains(id, entity.Separator) {
		return &MetadataError{Code: CodeInvalidID, Key: fmt.Sprintf("%s %q", kind, id)}
	}
	return nil
}

func (r Realm) validate() error {
	return validateID("realm", r.ID)
}

func (d SourceDocument) validate() error {
	if err := validateID("realm", d.RealmID); err != nil {
		return err
	}
	return validateID("document", d.ID)
}

// validate checks every component of the entry's key.
func (e *Entry) validate() error {
	if e.Item == nil {
		return &MetadataError{Code: CodeInvalidID, Key: "entry without item"}
	}
	if err := (SourceDocument{ID: e.Document.ID, RealmID: e.RealmID}).validate(); err != nil {
		return err
	}
	return validateID(string(e.Item.ItemType()), e.Item.Identifier())
}
