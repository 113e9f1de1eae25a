package compendium

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ItemType identifies the kind of item an entry holds.
type ItemType string

const (
	ItemTypeMonster   ItemType = "monster"
	ItemTypeCharacter ItemType = "character"
	ItemTypeSpell     ItemType = "spell"
	ItemTypeGroup     ItemType = "group"
)

// ItemTypes lists every item type.
var ItemTypes = []ItemType{ItemTypeMonster, ItemTypeCharacter, ItemTypeSpell, ItemTypeGroup}

// ParseItemType validates s as an item type.
func ParseItemType(s string) (ItemType, error) {
	for _, t := range ItemTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown item type %q", s)
}

// Item is the content of an entry.
type Item interface {
	ItemType() ItemType
	Title() string
	// Identifier is unique per type within a document and is the last
	// component of the entry key.
	Identifier() string
}

// Monster is identified by its name.
type Monster struct {
	Name            string `json:"name"`
	ChallengeRating string `json:"challengeRating"`
	Type            string `json:"type,omitempty"`
	ArmorClass      int    `json:"armorClass,omitempty"`
	HitPoints       int    `json:"hitPoints,omitempty"`
}

func (*Monster) ItemType() ItemType   { return ItemTypeMonster }
func (m *Monster) Title() string      { return m.Name }
func (m *Monster) Identifier() string { return m.Name }

// Spell is identified by its name. A nil Level is a cantrip.
type Spell struct {
	Name   string `json:"name"`
	Level  *int   `json:"level,omitempty"`
	School string `json:"school,omitempty"`
}

func (*Spell) ItemType() ItemType   { return ItemTypeSpell }
func (s *Spell) Title() string      { return s.Name }
func (s *Spell) Identifier() string { return s.Name }

// Character is a player or non-player character, identified by UUID.
type Character struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Level int       `json:"level,omitempty"`
}

func (*Character) ItemType() ItemType   { return ItemTypeCharacter }
func (c *Character) Title() string      { return c.Name }
func (c *Character) Identifier() string { return c.ID.String() }

// Group lists other entries by reference. Its members are not contained in
// it, so a group is never relocated by a transfer.
type Group struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Members []ItemReference `json:"members"`
}

func (*Group) ItemType() ItemType   { return ItemTypeGroup }
func (g *Group) Title() string      { return g.Name }
func (g *Group) Identifier() string { return g.ID.String() }

// newItem returns an empty item of type t to decode into.
func newItem(t ItemType) (Item, error) {
	switch t {
	case ItemTypeMonster:
		return &Monster{}, nil
	case ItemTypeCharacter:
		return &Character{}, nil
	case ItemTypeSpell:
		return &Spell{}, nil
	case ItemTypeGroup:
		return &Group{}, nil
	default:
		return nil, fmt.Errorf("unknown item type %q", t)
	}
}

// ChallengeRatingIndexValue formats a challenge rating ("1/4", "2", "0.5")
// so that string order is numeric order: 1/4 is "000.250", 10 is "010.000".
func ChallengeRatingIndexValue(cr string) (string, error) {
	v, err := parseChallengeRating(cr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%07.3f", v), nil
}

func parseChallengeRating(cr string) (float64, error) {
	cr = strings.TrimSpace(cr)
	if num, den, ok := strings.Cut(cr, "/"); ok {
		n, err1 := strconv.Atoi(num)
		d, err2 := strconv.Atoi(den)
		if err1 != nil || err2 != nil || d <= 0 || n < 0 {
			return 0, fmt.Errorf("invalid challenge rating %q", cr)
		}
		return float64(n) / float64(d), nil
	}
	v, err := strconv.ParseFloat(cr, 64)
	if err != nil || v < 0 || v >= 1000 {
		return 0, fmt.Errorf("invalid challenge rating %q", cr)
	}
	return v, nil
}
