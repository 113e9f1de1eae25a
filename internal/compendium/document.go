package compendium

import (
	"fmt"
	"strings"

	"github.com/Thomvis/Construct-sub002/internal/entity"
)

// SourceDocument is a container of entries within a realm, typically one
// book or one imported file.
type SourceDocument struct {
	ID          string `json:"id"`
	RealmID     string `json:"realmId"`
	DisplayName string `json:"displayName"`
}

// DocumentPrefix owns source document keys.
const DocumentPrefix entity.Prefix = "document"

// Default documents.
var (
	SRDDocument      = SourceDocument{ID: "srd", RealmID: CoreRealm.ID, DisplayName: "Systems Reference Document 5.1"}
	HomebrewDocument = SourceDocument{ID: "homebrew", RealmID: HomebrewRealm.ID, DisplayName: "Homebrew"}
)

func (*SourceDocument) EntityPrefix() entity.Prefix { return DocumentPrefix }
func (d *SourceDocument) RawKey() string            { return d.Key().String() }

func (d *SourceDocument) FTSDocument() entity.FTSDocument {
	return entity.FTSDocument{Title: d.DisplayName}
}

// Key returns the document's address.
func (d SourceDocument) Key() DocumentKey {
	return DocumentKey{RealmID: d.RealmID, DocumentID: d.ID}
}

// Ref returns the copy of the document's identity stored in entries.
func (d SourceDocument) Ref() DocumentRef {
	return DocumentRef{ID: d.ID, DisplayName: d.DisplayName}
}

// IsDefault reports whether the document is one of the built-in documents.
func (d SourceDocument) IsDefault() bool {
	return d.Key().IsDefault()
}

// DocumentKey addresses a source document.
type DocumentKey struct {
	RealmID    string
	DocumentID string
}

// String returns the stored key, document::<realm>::<document>.
func (k DocumentKey) String() string {
	return entity.Compose(DocumentPrefix, k.RealmID, k.DocumentID)
}

// Path returns the "<realm>/<document>" form used on the command line.
func (k DocumentKey) Path() string {
	return k.RealmID + "/" + k.DocumentID
}

// IsDefault reports whether k addresses a built-in document.
func (k DocumentKey) IsDefault() bool {
	return k == SRDDocument.Key() || k == HomebrewDocument.Key()
}

// sourceIndexValue is the secondary index value identifying the document.
func (k DocumentKey) sourceIndexValue() string {
	return k.RealmID + entity.Separator + k.DocumentID
}

// ParseDocumentPath parses "<realm>/<document>".
func ParseDocumentPath(s string) (DocumentKey, error) {
	realm, doc, ok := strings.Cut(s, "/")
	if !ok || realm == "" || doc == "" || strings.Contains(doc, "/") {
		return DocumentKey{}, fmt.Errorf("invalid document path %q, expected <realm>/<document>", s)
	}
	return DocumentKey{RealmID: realm, DocumentID: doc}, nil
}

// DocumentRef is the document identity embedded in an entry.
type DocumentRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}
