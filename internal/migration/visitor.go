package migration

import "github.com/Thomvis/Construct-sub002/internal/entity"

// Visitor inspects and possibly mutates an entity in place. Visit reports
// whether it changed anything. Entities are pointers, so mutations are
// visible to the caller.
type Visitor interface {
	Visit(e entity.Entity) bool
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(e entity.Entity) bool

// Visit calls f(e).
func (f VisitorFunc) Visit(e entity.Entity) bool { return f(e) }

// Reindex returns a visitor that marks every entity owned by one of the given
// prefixes as changed, so the run rewrites it and recomputes its full-text and
// index rows. With no prefixes every entity is reindexed.
func Reindex(prefixes ...entity.Prefix) Visitor {
	return VisitorFunc(func(e entity.Entity) bool {
		if len(prefixes) == 0 {
			return true
		}
		for _, p := range prefixes {
			if e.EntityPrefix() == p {
				return true
			}
		}
		return false
	})
}
