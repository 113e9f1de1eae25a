package compendium

import (
	"context"
	"fmt"

	"github.com/Thomvis/Construct-sub002/internal/store"
)

// ImportBatch is a set of resources to import in one transaction.
type ImportBatch struct {
	Realms    []Realm
	Documents []SourceDocument
	Entries   []*Entry
	Job       ImportJob
}

// ImportResult reports what Import wrote.
type ImportResult struct {
	RealmsCreated    int    `json:"realmsCreated"`
	DocumentsCreated int    `json:"documentsCreated"`
	Entries          int    `json:"entries"`
	JobKey           string `json:"jobKey"`
}

// Import creates the batch's realms and documents that do not exist yet,
// stores its entries marked as imported by the batch's job, and stores the
// job. Entries must belong to an existing document or one in the batch
// (ErrInvalidParent otherwise). Nothing is written if anything fails.
func (c *Compendium) Import(ctx context.Context, b ImportBatch) (ImportResult, error) {
	var res ImportResult
	err := c.store.Transaction(ctx, func(tx *store.Tx) error {
		res = ImportResult{}

		for _, r := range b.Realms {
			if err := r.validate(); err != nil {
				return err
			}
			exists, err := tx.Contains(ctx, r.RawKey())
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := createRealm(ctx, tx, r); err != nil {
				return err
			}
			res.RealmsCreated++
		}

		for _, d := range b.Documents {
			if err := d.validate(); err != nil {
				return err
			}
			exists, err := tx.Contains(ctx, d.RawKey())
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := createDocument(ctx, tx, d); err != nil {
				return err
			}
			res.DocumentsCreated++
		}

		job := b.Job
		origin := Origin{Kind: OriginImported, ImportJob: job.RawKey()}
		for _, e := range b.Entries {
			if err := e.validate(); err != nil {
				return err
			}
			docKey := e.DocumentKey()
			exists, err := tx.Contains(ctx, docKey.String())
			if err != nil {
				return err
			}
			if !exists {
				return &MetadataError{Code: CodeInvalidParent, Key: docKey.String()}
			}
			e.Origin = origin
			if err := tx.PutEntity(ctx, e); err != nil {
				return fmt.Errorf("import %s: %w", e.RawKey(), err)
			}
			res.Entries++
		}

		job.EntryCount = res.Entries
		if err := tx.PutEntity(ctx, &job); err != nil {
			return err
		}
		res.JobKey = job.RawKey()
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	c.logger.Info("import finished", "job", res.JobKey, "entries", res.Entries,
		"realms_created", res.RealmsCreated, "documents_created", res.DocumentsCreated)
	return res, nil
}
