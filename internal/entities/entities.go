// Package entities assembles the registry of every persisted type in the
// application.
package entities

import (
	"github.com/Thomvis/Construct-sub002/internal/compendium"
	"github.com/Thomvis/Construct-sub002/internal/encounter"
	"github.com/Thomvis/Construct-sub002/internal/entity"
)

// Types returns every application entity type.
func Types() []entity.Type {
	return append(compendium.Types(), encounter.Type())
}

// DefaultRegistry returns the application registry. It panics if two types
// share a prefix, which is a programming error.
func DefaultRegistry() *entity.Registry {
	return entity.MustRegistry(Types()...)
}
