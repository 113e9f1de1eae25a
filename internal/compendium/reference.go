package compendium

// ItemReference points at an entry by key. Title caches the entry's title
// for display.
type ItemReference struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// ReferenceTo returns a reference to e.
func ReferenceTo(e *Entry) ItemReference {
	return ItemReference{Key: e.RawKey(), Title: e.Item.Title()}
}

// ItemReferenceHolder is implemented by entities that reference entries by
// key. rewrite returns the new key for an old one, or false to keep it.
// UpdateItemReferences reports whether any reference changed.
type ItemReferenceHolder interface {
	UpdateItemReferences(rewrite func(key string) (string, bool)) bool
}

// UpdateReference applies rewrite to ref.
func UpdateReference(ref *ItemReference, rewrite func(key string) (string, bool)) bool {
	if ref == nil {
		return false
	}
	next, ok := rewrite(ref.Key)
	if !ok || next == ref.Key {
		return false
	}
	ref.Key = next
	return true
}
