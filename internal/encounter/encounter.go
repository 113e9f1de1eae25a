// Package encounter stores combat encounters. Combatants may reference
// compendium entries; the references follow entries that are moved or
// renamed.
package encounter

import (
	"github.com/google/uuid"

	"github.com/Thomvis/Construct-sub002/internal/compendium"
	"github.com/Thomvis/Construct-sub002/internal/entity"
)

// Prefix owns encounter keys.
const Prefix entity.Prefix = "encounter"

// Encounter is a named set of combatants.
type Encounter struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Combatants []Combatant `json:"combatants"`
}

// Combatant takes part in an encounter. Item is nil for ad-hoc combatants.
type Combatant struct {
	ID   uuid.UUID                 `json:"id"`
	Name string                    `json:"name"`
	Item *compendium.ItemReference `json:"item,omitempty"`
}

// New returns an empty encounter with a random id.
func New(name string) *Encounter {
	return &Encounter{ID: uuid.New(), Name: name}
}

// Key returns the key of the encounter with id.
func Key(id uuid.UUID) string {
	return entity.Compose(Prefix, id.String())
}

// Add appends a combatant for entry and returns it.
func (e *Encounter) Add(entry *compendium.Entry) Combatant {
	ref := compendium.ReferenceTo(entry)
	c := Combatant{ID: uuid.New(), Name: ref.Title, Item: &ref}
	e.Combatants = append(e.Combatants, c)
	return c
}

func (*Encounter) EntityPrefix() entity.Prefix { return Prefix }
func (e *Encounter) RawKey() string            { return Key(e.ID) }

func (e *Encounter) FTSDocument() entity.FTSDocument {
	return entity.FTSDocument{Title: e.Name}
}

// UpdateItemReferences rewrites the compendium references of combatants.
func (e *Encounter) UpdateItemReferences(rewrite func(key string) (string, bool)) bool {
	changed := false
	for i := range e.Combatants {
		changed = compendium.UpdateReference(e.Combatants[i].Item, rewrite) || changed
	}
	return changed
}

// Type registers encounters with an entity registry.
func Type() entity.Type {
	return entity.TypeOf("encounter", func() *Encounter { return &Encounter{} })
}
