package compendium

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/Thomvis/Construct-sub002/internal/entity"
)

// EntryPrefix owns entry keys.
const EntryPrefix entity.Prefix = "entry"

// Origin kinds.
const (
	OriginCreated  = "created"
	OriginImported = "imported"
)

// Origin records how an entry came to be.
type Origin struct {
	Kind string `json:"kind"`
	// ImportJob is the key of the job that imported the entry.
	ImportJob string `json:"importJob,omitempty"`
}

// Entry is an item stored in a source document.
type Entry struct {
	RealmID  string
	Document DocumentRef
	Item     Item
	Origin   Origin

	// keepBoth renaming state, not persisted
	conflictBase    string
	conflictAttempt int
}

// NewEntry places item in doc.
func NewEntry(doc SourceDocument, item Item, origin Origin) *Entry {
	return &Entry{RealmID: doc.RealmID, Document: doc.Ref(), Item: item, Origin: origin}
}

// EntryKey returns the key of the entry holding an item of type t with the
// given identifier in doc.
func EntryKey(t ItemType, doc DocumentKey, identifier string) string {
	return entity.Compose(EntryPrefix, string(t), doc.RealmID, doc.DocumentID, identifier)
}

// EntryTypeScope returns the key prefix shared by all entries of type t.
func EntryTypeScope(t ItemType) string {
	return entity.Compose(EntryPrefix, string(t)) + entity.Separator
}

// ParsedEntryKey is the decomposition of an entry key.
type ParsedEntryKey struct {
	Type       ItemType
	Document   DocumentKey
	Identifier string
}

// ParseEntryKey splits raw into its components.
func ParseEntryKey(raw string) (ParsedEntryKey, bool) {
	parts := entity.Components(EntryPrefix, raw)
	if len(parts) != 4 {
		return ParsedEntryKey{}, false
	}
	t, err := ParseItemType(parts[0])
	if err != nil {
		return ParsedEntryKey{}, false
	}
	return ParsedEntryKey{
		Type:       t,
		Document:   DocumentKey{RealmID: parts[1], DocumentID: parts[2]},
		Identifier: parts[3],
	}, true
}

func (*Entry) EntityPrefix() entity.Prefix { return EntryPrefix }

func (e *Entry) RawKey() string {
	return EntryKey(e.Item.ItemType(), e.DocumentKey(), e.Item.Identifier())
}

// DocumentKey returns the key of the document holding e.
func (e *Entry) DocumentKey() DocumentKey {
	return DocumentKey{RealmID: e.RealmID, DocumentID: e.Document.ID}
}

func (e *Entry) FTSDocument() entity.FTSDocument {
	return entity.FTSDocument{Title: e.Item.Title()}
}

func (e *Entry) SecondaryIndexValues() entity.IndexValues {
	values := entity.IndexValues{
		IndexTitle:          e.Item.Title(),
		IndexSourceDocument: e.DocumentKey().sourceIndexValue(),
		IndexItemType:       string(e.Item.ItemType()),
		IndexRealm:          e.RealmID,
	}
	switch item := e.Item.(type) {
	case *Monster:
		if cr, err := ChallengeRatingIndexValue(item.ChallengeRating); err == nil {
			values[IndexChallengeRating] = cr
		}
		if item.Type != "" {
			values[IndexMonsterType] = item.Type
		}
	case *Spell:
		values[IndexSpellLevel] = spellLevelIndexValue(item.Level)
	}
	return values
}

// ResolveKeyConflict gives the entry a new identifier after its key turned
// out to be taken. Titles get " 2", " 3", ... appended. UUID-identified
// items also get a new id derived from the previous id and the new title.
func (e *Entry) ResolveKeyConflict() {
	if e.conflictAttempt == 0 {
		e.conflictBase = e.Item.Title()
		e.conflictAttempt = 1
	}
	e.conflictAttempt++
	title := e.conflictBase + " " + strconv.Itoa(e.conflictAttempt)

	switch item := e.Item.(type) {
	case *Monster:
		item.Name = title
	case *Spell:
		item.Name = title
	case *Character:
		item.Name = title
		item.ID = uuid.NewSHA1(item.ID, []byte(title))
	case *Group:
		item.Name = title
		item.ID = uuid.NewSHA1(item.ID, []byte(title))
	}
}

// UpdateItemReferences rewrites the member references of a group.
func (e *Entry) UpdateItemReferences(rewrite func(key string) (string, bool)) bool {
	g, ok := e.Item.(*Group)
	if !ok {
		return false
	}
	changed := false
	for i := range g.Members {
		changed = UpdateReference(&g.Members[i], rewrite) || changed
	}
	return changed
}

type entryJSON struct {
	RealmID  string          `json:"realm"`
	Document DocumentRef     `json:"document"`
	ItemType ItemType        `json:"itemType"`
	Item     json.RawMessage `json:"item"`
	Origin   Origin          `json:"origin"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Item == nil {
		return nil, fmt.Errorf("entry has no item")
	}
	item, err := json.Marshal(e.Item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entryJSON{
		RealmID:  e.RealmID,
		Document: e.Document,
		ItemType: e.Item.ItemType(),
		Item:     item,
		Origin:   e.Origin,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	item, err := newItem(raw.ItemType)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw.Item, item); err != nil {
		return fmt.Errorf("decode %s: %w", raw.ItemType, err)
	}
	*e = Entry{RealmID: raw.RealmID, Document: raw.Document, Item: item, Origin: raw.Origin}
	return nil
}
