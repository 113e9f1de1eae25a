package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownType is returned when no registered type owns a key.
var ErrUnknownType = errors.New("no registered entity type for key")

// PrefixCollisionError reports two registered prefixes where one is a prefix
// of the other. Polymorphic decoding by prefix would be ambiguous.
type PrefixCollisionError struct {
	A, B Prefix
}

func (e *PrefixCollisionError) Error() string {
	if e.A == e.B {
		return fmt.Sprintf("entity prefix %q registered twice", e.A)
	}
	return fmt.Sprintf("entity prefix %q is a prefix of %q", e.A, e.B)
}

// Type is a registered entity type: a prefix and a type-erased decoder.
type Type struct {
	Name   string
	Prefix Prefix
	decode func(data []byte) (Entity, error)
}

// TypeOf registers E. newFn must return a fresh value ready to be decoded
// into, normally a pointer to a zero struct.
func TypeOf[E Entity](name string, newFn func() E) Type {
	return Type{
		Name:   name,
		Prefix: newFn().EntityPrefix(),
		decode: func(data []byte) (Entity, error) {
			e := newFn()
			if err := json.Unmarshal(data, e); err != nil {
				return nil, err
			}
			return e, nil
		},
	}
}

// Registry resolves stored keys to entity types.
// A Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	types []Type
}

// NewRegistry builds a registry, checking that prefixes are non-empty, free
// of Separator and mutually non-prefixing.
func NewRegistry(types ...Type) (*Registry, error) {
	for _, t := range types {
		if t.Prefix == "" {
			return nil, fmt.Errorf("entity type %q has an empty prefix", t.Name)
		}
		if strings.Contains(string(t.Prefix), Separator) {
			return nil, fmt.Errorf("entity prefix %q contains separator %q", t.Prefix, Separator)
		}
		if t.decode == nil {
			return nil, fmt.Errorf("entity type %q has no decoder", t.Name)
		}
	}
	for i := range types {
		for j := range types {
			if i == j {
				continue
			}
			a, b := types[i].Prefix, types[j].Prefix
			if strings.HasPrefix(string(b), string(a)) && (a != b || i < j) {
				return nil, &PrefixCollisionError{A: a, B: b}
			}
		}
	}

	sorted := make([]Type, len(types))
	copy(sorted, types)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Prefix < sorted[j].Prefix })
	return &Registry{types: sorted}, nil
}

// MustRegistry is NewRegistry for statically known type lists.
func MustRegistry(types ...Type) *Registry {
	r, err := NewRegistry(types...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the type owning key.
func (r *Registry) Lookup(key string) (Type, bool) {
	if r == nil {
		return Type{}, false
	}
	for _, t := range r.types {
		if t.Prefix.Owns(key) {
			return t, true
		}
	}
	return Type{}, false
}

// Decode decodes data stored under key using the type owning key.
// Returns an error wrapping ErrUnknownType when no type matches.
func (r *Registry) Decode(key string, data []byte) (Entity, error) {
	t, ok := r.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, key)
	}
	e, err := t.decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", t.Name, err)
	}
	return e, nil
}

// Prefixes returns the registered prefixes in sorted order.
func (r *Registry) Prefixes() []Prefix {
	out := make([]Prefix, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t.Prefix)
	}
	return out
}

// Encode serializes an entity for storage.
func Encode(e Entity) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.EntityPrefix(), err)
	}
	return data, nil
}
