package compendium

import "github.com/Thomvis/Construct-sub002/internal/entity"

// Realm groups source documents, e.g. official content or homebrew.
type Realm struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// RealmPrefix owns realm keys.
const RealmPrefix entity.Prefix = "realm"

// Default realms.
var (
	CoreRealm     = Realm{ID: "core", DisplayName: "Core"}
	HomebrewRealm = Realm{ID: "homebrew", DisplayName: "Homebrew"}
)

// RealmKey returns the key of realm id.
func RealmKey(id string) string {
	return entity.Compose(RealmPrefix, id)
}

func (*Realm) EntityPrefix() entity.Prefix { return RealmPrefix }
func (r *Realm) RawKey() string            { return RealmKey(r.ID) }

func (r *Realm) FTSDocument() entity.FTSDocument {
	return entity.FTSDocument{Title: r.DisplayName}
}

// IsDefaultRealm reports whether id is one of the built-in realms.
func IsDefaultRealm(id string) bool {
	return id == CoreRealm.ID || id == HomebrewRealm.ID
}
