package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Thomvis/Construct-sub002/internal/compendium"
)

// Import writes f into c in one transaction and records an import job.
// source names where the fixture came from, usually its file name.
//
// Characters without an id get one derived from the target document and
// their name, so importing the same fixture twice overwrites instead of
// duplicating.
func Import(ctx context.Context, c *compendium.Compendium, f *Fixture, source string) (compendium.ImportResult, error) {
	target, err := compendium.ParseDocumentPath(f.Document)
	if err != nil {
		return compendium.ImportResult{}, err
	}
	doc, err := targetDocument(ctx, c, f, target)
	if err != nil {
		return compendium.ImportResult{}, err
	}

	entries := make([]*compendium.Entry, 0, len(f.Entries))
	for i, fe := range f.Entries {
		item, err := decodeItem(fe, target)
		if err != nil {
			return compendium.ImportResult{}, fmt.Errorf("entries[%d]: %w", i, err)
		}
		entries = append(entries, compendium.NewEntry(doc, item, compendium.Origin{}))
	}

	name := source
	if name == "" {
		name = f.Name
	}
	return c.Import(ctx, compendium.ImportBatch{
		Realms:    f.Realms,
		Documents: f.Documents,
		Entries:   entries,
		Job: compendium.ImportJob{
			ID:            uuid.New(),
			SourceType:    f.Format,
			SourceName:    name,
			SourceVersion: f.Version,
			RealmID:       target.RealmID,
			DocumentID:    target.DocumentID,
			Timestamp:     time.Now().UTC(),
		},
	})
}

// targetDocument finds the fixture's document among the ones it declares or
// the ones already stored. An unknown document is returned with its id as
// display name; the import then fails with an invalid parent.
func targetDocument(ctx context.Context, c *compendium.Compendium, f *Fixture, key compendium.DocumentKey) (compendium.SourceDocument, error) {
	for _, d := range f.Documents {
		if d.Key() == key {
			return d, nil
		}
	}
	existing, err := c.Document(ctx, key)
	if err != nil {
		return compendium.SourceDocument{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	return compendium.SourceDocument{ID: key.DocumentID, RealmID: key.RealmID, DisplayName: key.DocumentID}, nil
}

func decodeItem(fe FixtureEntry, target compendium.DocumentKey) (compendium.Item, error) {
	switch fe.Type {
	case compendium.ItemTypeMonster:
		var m compendium.Monster
		if err := json.Unmarshal(fe.Item, &m); err != nil {
			return nil, err
		}
		return &m, nil
	case compendium.ItemTypeSpell:
		var s compendium.Spell
		if err := json.Unmarshal(fe.Item, &s); err != nil {
			return nil, err
		}
		return &s, nil
	case compendium.ItemTypeCharacter:
		var ch compendium.Character
		if err := json.Unmarshal(fe.Item, &ch); err != nil {
			return nil, err
		}
		if ch.ID == uuid.Nil {
			ch.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(target.Path()+"/"+ch.Name))
		}
		return &ch, nil
	}
	return nil, fmt.Errorf("item type %q cannot be imported", fe.Type)
}
