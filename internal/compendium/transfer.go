package compendium

import (
	"context"
	"fmt"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/metrics"
	"github.com/Thomvis/Construct-sub002/internal/migration"
	"github.com/Thomvis/Construct-sub002/internal/queryir"
	"github.com/Thomvis/Construct-sub002/internal/store"
)

// Selection picks the entries to transfer. Implemented by SingleKey,
// MultipleKeys and Query.
type Selection interface {
	request() (queryir.Request, error)
}

// SingleKey selects one entry.
type SingleKey struct {
	Key string
}

// MultipleKeys selects entries by key.
type MultipleKeys struct {
	Keys []string
}

// Query selects the entries matching a fetch request, evaluated once before
// anything is written.
type Query struct {
	Request FetchRequest
}

func (s SingleKey) request() (queryir.Request, error) {
	return queryir.ForKeys(s.Key), nil
}

func (s MultipleKeys) request() (queryir.Request, error) {
	return queryir.ForKeys(s.Keys...), nil
}

func (s Query) request() (queryir.Request, error) {
	return s.Request.Request()
}

// TransferMode is either Move or Copy.
type TransferMode string

const (
	Move TransferMode = "move"
	Copy TransferMode = "copy"
)

// ParseTransferMode validates s as a transfer mode.
func ParseTransferMode(s string) (TransferMode, error) {
	switch TransferMode(s) {
	case Move, Copy:
		return TransferMode(s), nil
	}
	return "", fmt.Errorf("unknown transfer mode %q", s)
}

// TransferConflictResolution decides what happens when the target document
// already holds an entry with the same key.
type TransferConflictResolution string

const (
	// ConflictSkip leaves both entries as they are.
	ConflictSkip TransferConflictResolution = "skip"
	// ConflictOverwrite replaces the existing entry.
	ConflictOverwrite TransferConflictResolution = "overwrite"
	// ConflictKeepBoth stores the transferred entry under a new title or id.
	ConflictKeepBoth TransferConflictResolution = "keepBoth"
)

// ParseTransferConflictResolution validates s.
func ParseTransferConflictResolution(s string) (TransferConflictResolution, error) {
	switch TransferConflictResolution(s) {
	case ConflictSkip, ConflictOverwrite, ConflictKeepBoth:
		return TransferConflictResolution(s), nil
	}
	return "", fmt.Errorf("unknown conflict resolution %q", s)
}

func (cr TransferConflictResolution) migration() migration.ConflictResolution {
	switch cr {
	case ConflictOverwrite:
		return migration.Overwrite{}
	case ConflictKeepBoth:
		return migration.Rename{Fallback: migration.Skip{}}
	default:
		return migration.Skip{}
	}
}

// Transfer moves or copies the selected entries into the target document.
//
// Everything happens in one transaction: if the target does not exist
// (ErrNotFound) or any entry fails, nothing is written. Groups are never
// relocated, and entries already in the target are left alone. After a move,
// every record referencing a moved entry is rewritten to its new key.
//
// Returns the original keys of the entries that were moved or copied.
// Entries skipped because of a conflict are not included.
func (c *Compendium) Transfer(ctx context.Context, sel Selection, mode TransferMode, target DocumentKey, cr TransferConflictResolution) ([]string, error) {
	if _, err := ParseTransferMode(string(mode)); err != nil {
		return nil, err
	}
	if _, err := ParseTransferConflictResolution(string(cr)); err != nil {
		return nil, err
	}
	scope, err := sel.request()
	if err != nil {
		return nil, fmt.Errorf("transfer selection: %w", err)
	}

	var res migration.Result
	err = c.store.Transaction(ctx, func(tx *store.Tx) error {
		doc, err := getDocument(ctx, tx, target)
		if err != nil {
			return err
		}
		if doc == nil {
			return notFound(target.String())
		}

		res, err = c.migrations.Run(ctx, tx, migration.Options{
			Scope:                   scope,
			Visitors:                []migration.Visitor{relocate(*doc)},
			ConflictResolution:      cr.migration(),
			KeepOriginalOnKeyChange: mode == Copy,
		})
		if err != nil {
			return err
		}
		if n := len(res.Failed) + len(res.Undecodable); n > 0 {
			return fmt.Errorf("transfer: %d selected records could not be transferred", n)
		}

		if mode == Move {
			return c.rewriteReferences(ctx, tx, res.KeyChanges)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := metrics.OutcomeCopied
	if mode == Move {
		outcome = metrics.OutcomeMoved
	}
	for range res.Saved {
		c.metrics.RecordTransfer(string(mode), outcome)
	}
	for range res.Skipped {
		c.metrics.RecordTransfer(string(mode), metrics.OutcomeSkipped)
	}

	if cr == ConflictKeepBoth {
		for _, key := range res.Skipped {
			c.logger.Info("no free name for kept entry, skipped",
				"key", key, "target", target.Path())
		}
	}

	c.logger.Info("transfer finished",
		"mode", mode,
		"target", target.Path(),
		"conflict", cr,
		"transferred", len(res.Saved),
		"skipped", len(res.Skipped))

	affected := res.Saved
	if affected == nil {
		affected = []string{}
	}
	return affected, nil
}

// relocate places entries in doc. Groups and entries already in doc are
// left unchanged.
func relocate(doc SourceDocument) migration.Visitor {
	return migration.VisitorFunc(func(e entity.Entity) bool {
		entry, ok := e.(*Entry)
		if !ok || entry.Item.ItemType() == ItemTypeGroup {
			return false
		}
		if entry.DocumentKey() == doc.Key() {
			return false
		}
		entry.RealmID = doc.RealmID
		entry.Document = doc.Ref()
		return true
	})
}
