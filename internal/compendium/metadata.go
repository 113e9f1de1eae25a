package compendium

import (
	"context"
	"fmt"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/migration"
	"github.com/Thomvis/Construct-sub002/internal/queryir"
	"github.com/Thomvis/Construct-sub002/internal/store"
)

// Realms returns every realm in key order.
func (c *Compendium) Realms(ctx context.Context) ([]Realm, error) {
	return store.FetchAll[Realm](ctx, c.store, queryir.KeyPrefix(RealmPrefix.Scope()))
}

// Documents returns every source document in key order.
func (c *Compendium) Documents(ctx context.Context) ([]SourceDocument, error) {
	return store.FetchAll[SourceDocument](ctx, c.store, queryir.KeyPrefix(DocumentPrefix.Scope()))
}

// Document returns the document under key, or nil if there is none.
func (c *Compendium) Document(ctx context.Context, key DocumentKey) (*SourceDocument, error) {
	return getDocument(ctx, c.store, key)
}

// ObserveRealms watches the list of realms.
func (c *Compendium) ObserveRealms(ctx context.Context) *store.TypedSubscription[Realm] {
	return store.ObserveAllValues[Realm](ctx, c.store, queryir.KeyPrefix(RealmPrefix.Scope()))
}

// ObserveDocuments watches the list of source documents.
func (c *Compendium) ObserveDocuments(ctx context.Context) *store.TypedSubscription[SourceDocument] {
	return store.ObserveAllValues[SourceDocument](ctx, c.store, queryir.KeyPrefix(DocumentPrefix.Scope()))
}

// EnsureDefaults creates the built-in realms and documents that are missing.
func (c *Compendium) EnsureDefaults(ctx context.Context) error {
	return c.store.Transaction(ctx, func(tx *store.Tx) error {
		for _, r := range []Realm{CoreRealm, HomebrewRealm} {
			if err := putIfMissing(ctx, tx, &r); err != nil {
				return err
			}
		}
		for _, d := range []SourceDocument{SRDDocument, HomebrewDocument} {
			if err := putIfMissing(ctx, tx, &d); err != nil {
				return err
			}
		}
		return nil
	})
}

func putIfMissing(ctx context.Context, tx *store.Tx, e entity.Entity) error {
	exists, err := tx.Contains(ctx, e.RawKey())
	if err != nil || exists {
		return err
	}
	return tx.PutEntity(ctx, e)
}

// CreateRealm stores a new realm. Fails with ErrAlreadyExists, or
// ErrInvalidID when the id is empty or contains the key separator.
func (c *Compendium) CreateRealm(ctx context.Context, r Realm) error {
	return c.store.Transaction(ctx, func(tx *store.Tx) error {
		return createRealm(ctx, tx, r)
	})
}

func createRealm(ctx context.Context, tx *store.Tx, r Realm) error {
	if err := r.validate(); err != nil {
		return err
	}
	exists, err := tx.Contains(ctx, r.RawKey())
	if err != nil {
		return err
	}
	if exists {
		return alreadyExists(r.RawKey())
	}
	return tx.PutEntity(ctx, &r)
}

// UpdateRealm changes a realm's display name. Fails with ErrNotFound.
func (c *Compendium) UpdateRealm(ctx context.Context, id, displayName string) error {
	return c.store.Transaction(ctx, func(tx *store.Tx) error {
		key := RealmKey(id)
		exists, err := tx.Contains(ctx, key)
		if err != nil {
			return err
		}
		if !exists {
			return notFound(key)
		}
		return tx.PutEntity(ctx, &Realm{ID: id, DisplayName: displayName})
	})
}

// RemoveRealm removes an empty realm. Fails with ErrNotFound or ErrNotEmpty.
func (c *Compendium) RemoveRealm(ctx context.Context, id string) error {
	return c.store.Transaction(ctx, func(tx *store.Tx) error {
		key := RealmKey(id)
		exists, err := tx.Contains(ctx, key)
		if err != nil {
			return err
		}
		if !exists {
			return notFound(key)
		}

		docs, err := tx.Count(ctx, queryir.KeyPrefix(entity.Compose(DocumentPrefix, id)+entity.Separator))
		if err != nil {
			return err
		}
		if docs > 0 {
			return &MetadataError{Code: CodeNotEmpty, Key: key}
		}

		_, err = tx.Remove(ctx, key)
		return err
	})
}

// CreateDocument stores a new document. Fails with ErrAlreadyExists, or
// ErrInvalidParent when its realm does not exist.
func (c *Compendium) CreateDocument(ctx context.Context, d SourceDocument) error {
	return c.store.Transaction(ctx, func(tx *store.Tx) error {
		return createDocument(ctx, tx, d)
	})
}

func createDocument(ctx context.Context, tx *store.Tx, d SourceDocument) error {
	if err := d.validate(); err != nil {
		return err
	}
	exists, err := tx.Contains(ctx, d.RawKey())
	if err != nil {
		return err
	}
	if exists {
		return alreadyExists(d.RawKey())
	}

	realmExists, err := tx.Contains(ctx, RealmKey(d.RealmID))
	if err != nil {
		return err
	}
	if !realmExists {
		return &MetadataError{Code: CodeInvalidParent, Key: RealmKey(d.RealmID)}
	}
	return tx.PutEntity(ctx, &d)
}

// UpdateDocument replaces the document at original with d. d may have a new
// display name, a new id, a new realm or all of these. Entries and import
// jobs of the document follow it, and references to moved entries are
// rewritten, all in one transaction.
//
// Fails with ErrNotFound, ErrAlreadyExists when d's key is taken,
// ErrInvalidParent when d's realm does not exist, and
// ErrCannotRelocateProtectedResource when moving a built-in document, and
// ErrInvalidID when d's realm or document id contains the key separator.
func (c *Compendium) UpdateDocument(ctx context.Context, d SourceDocument, original DocumentKey) error {
	if err := d.validate(); err != nil {
		return err
	}
	return c.store.Transaction(ctx, func(tx *store.Tx) error {
		exists, err := tx.Contains(ctx, original.String())
		if err != nil {
			return err
		}
		if !exists {
			return notFound(original.String())
		}

		moving := d.Key() != original
		if moving {
			if original.IsDefault() {
				return &MetadataError{Code: CodeCannotRelocateProtectedResource, Key: original.String()}
			}
			taken, err := tx.Contains(ctx, d.RawKey())
			if err != nil {
				return err
			}
			if taken {
				return alreadyExists(d.RawKey())
			}
		}
		if d.RealmID != original.RealmID {
			realmExists, err := tx.Contains(ctx, RealmKey(d.RealmID))
			if err != nil {
				return err
			}
			if !realmExists {
				return &MetadataError{Code: CodeInvalidParent, Key: RealmKey(d.RealmID)}
			}
		}

		res, err := c.migrations.Run(ctx, tx, migration.Options{
			Visitors: []migration.Visitor{
				updateEntryDocument(original, d),
				updateImportJobDocument(original, d),
			},
			ConflictResolution: migration.Rename{Fallback: migration.Remove{}},
		})
		if err != nil {
			return fmt.Errorf("update document entries: %w", err)
		}
		if len(res.Failed) > 0 {
			return fmt.Errorf("update document entries: %d records failed", len(res.Failed))
		}
		if err := c.rewriteReferences(ctx, tx, res.KeyChanges); err != nil {
			return err
		}

		if err := tx.PutEntity(ctx, &d); err != nil {
			return err
		}
		if moving {
			if _, err := tx.Remove(ctx, original.String()); err != nil {
				return err
			}
		}
		c.logger.Info("document updated", "from", original.String(), "to", d.RawKey(),
			"entries", len(res.Saved))
		return nil
	})
}

// updateEntryDocument moves entries of document from into d, refreshing the
// cached display name.
func updateEntryDocument(from DocumentKey, d SourceDocument) migration.Visitor {
	return migration.VisitorFunc(func(e entity.Entity) bool {
		entry, ok := e.(*Entry)
		if !ok || entry.DocumentKey() != from {
			return false
		}
		if entry.RealmID == d.RealmID && entry.Document == d.Ref() {
			return false
		}
		entry.RealmID = d.RealmID
		entry.Document = d.Ref()
		return true
	})
}

func updateImportJobDocument(from DocumentKey, d SourceDocument) migration.Visitor {
	return migration.VisitorFunc(func(e entity.Entity) bool {
		job, ok := e.(*ImportJob)
		if !ok || job.DocumentKey() != from || job.DocumentKey() == d.Key() {
			return false
		}
		job.RealmID = d.RealmID
		job.DocumentID = d.ID
		return true
	})
}

// RemoveDocument removes a document and all of its entries.
// Fails with ErrNotFound.
func (c *Compendium) RemoveDocument(ctx context.Context, key DocumentKey) (removed int, err error) {
	err = c.store.Transaction(ctx, func(tx *store.Tx) error {
		exists, err := tx.Contains(ctx, key.String())
		if err != nil {
			return err
		}
		if !exists {
			return notFound(key.String())
		}
		if _, err := tx.Remove(ctx, key.String()); err != nil {
			return err
		}

		removed, err = tx.RemoveAll(ctx, queryir.KeyPrefix(EntryPrefix.Scope()).
			WithFilter(IndexSourceDocument, queryir.Equals{Value: key.sourceIndexValue()}))
		return err
	})
	return removed, err
}

// PutJob stores an import job.
func (c *Compendium) PutJob(ctx context.Context, job *ImportJob) error {
	return c.store.PutEntity(ctx, job)
}

// ImportJobs returns every import job in key order.
func (c *Compendium) ImportJobs(ctx context.Context) ([]ImportJob, error) {
	return store.FetchAll[ImportJob](ctx, c.store, queryir.KeyPrefix(ImportJobPrefix.Scope()))
}

func getDocument(ctx context.Context, r store.Reader, key DocumentKey) (*SourceDocument, error) {
	d, ok, err := store.Get[SourceDocument](ctx, r, key.String())
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}
