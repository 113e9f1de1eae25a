package entity

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Separator joins the components of a key.
const Separator = "::"

// Prefix identifies a persisted type. Prefixes never contain Separator.
type Prefix string

// Scope returns the key prefix shared by every instance of the type.
func (p Prefix) Scope() string {
	return string(p) + Separator
}

// Owns reports whether raw is a key of this type.
func (p Prefix) Owns(raw string) bool {
	return strings.HasPrefix(raw, p.Scope())
}

// Entity is implemented by every persisted type.
//
// EntityPrefix must not depend on the receiver's state: it is called on zero
// values (including nil pointers) to recover a type's prefix.
type Entity interface {
	EntityPrefix() Prefix
	RawKey() string
}

// Compose builds a key from a prefix and identity components. Components are
// NFC-normalized so visually identical identifiers map to the same key.
func Compose(p Prefix, parts ...string) string {
	var b strings.Builder
	b.WriteString(string(p))
	for _, part := range parts {
		b.WriteString(Separator)
		b.WriteString(norm.NFC.String(part))
	}
	return b.String()
}

// Components splits a key into its components after the prefix.
// Returns nil if raw does not belong to p.
func Components(p Prefix, raw string) []string {
	if !p.Owns(raw) {
		return nil
	}
	return strings.Split(strings.TrimPrefix(raw, p.Scope()), Separator)
}

// PrefixOf returns the prefix of E without an instance.
func PrefixOf[E Entity]() Prefix {
	var zero E
	return zero.EntityPrefix()
}

// Key is a typed key. The zero Key is empty and valid for no type.
type Key[E Entity] struct {
	raw string
}

// KeyOf returns the key of e.
func KeyOf[E Entity](e E) Key[E] {
	return Key[E]{raw: e.RawKey()}
}

// ParseKey wraps raw as a key of E. It fails when raw does not start with
// E's prefix.
func ParseKey[E Entity](raw string) (Key[E], bool) {
	if !PrefixOf[E]().Owns(raw) {
		return Key[E]{}, false
	}
	return Key[E]{raw: raw}, true
}

// MustParseKey is ParseKey for keys known to be valid. Panics otherwise.
func MustParseKey[E Entity](raw string) Key[E] {
	k, ok := ParseKey[E](raw)
	if !ok {
		panic(fmt.Sprintf("entity: %q is not a %s key", raw, PrefixOf[E]()))
	}
	return k
}

// String returns the raw key.
func (k Key[E]) String() string { return k.raw }

// IsZero reports whether k is the empty key.
func (k Key[E]) IsZero() bool { return k.raw == "" }

// MarshalText implements encoding.TextMarshaler.
func (k Key[E]) MarshalText() ([]byte, error) {
	return []byte(k.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It rejects keys of
// other types.
func (k *Key[E]) UnmarshalText(text []byte) error {
	parsed, ok := ParseKey[E](string(text))
	if !ok {
		return fmt.Errorf("entity: %q is not a %s key", text, PrefixOf[E]())
	}
	*k = parsed
	return nil
}
