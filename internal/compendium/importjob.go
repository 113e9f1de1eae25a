package compendium

import (
	"time"

	"github.com/google/uuid"

	"github.com/Thomvis/Construct-sub002/internal/entity"
)

// ImportJob records one import of entries into a document.
type ImportJob struct {
	ID            uuid.UUID `json:"id"`
	SourceType    string    `json:"sourceType"`
	SourceName    string    `json:"sourceName"`
	SourceVersion string    `json:"sourceVersion,omitempty"`
	RealmID       string    `json:"realmId"`
	DocumentID    string    `json:"documentId"`
	Timestamp     time.Time `json:"timestamp"`
	EntryCount    int       `json:"entryCount"`
}

// ImportJobPrefix owns import job keys.
const ImportJobPrefix entity.Prefix = "importjob"

func (*ImportJob) EntityPrefix() entity.Prefix { return ImportJobPrefix }
func (j *ImportJob) RawKey() string            { return entity.Compose(ImportJobPrefix, j.ID.String()) }

// DocumentKey returns the key of the document the job imported into.
func (j *ImportJob) DocumentKey() DocumentKey {
	return DocumentKey{RealmID: j.RealmID, DocumentID: j.DocumentID}
}
