package compendium

import "strconv"

// Secondary index ids of entries.
const (
	IndexTitle           = 0
	IndexSourceDocument  = 1
	IndexChallengeRating = 2
	IndexMonsterType     = 3
	IndexSpellLevel      = 4
	IndexItemType        = 5
	IndexRealm           = 6
)

var indexNames = map[string]int{
	"title":           IndexTitle,
	"document":        IndexSourceDocument,
	"challengeRating": IndexChallengeRating,
	"monsterType":     IndexMonsterType,
	"spellLevel":      IndexSpellLevel,
	"itemType":        IndexItemType,
	"realm":           IndexRealm,
}

// IndexByName returns the id of a named entry index.
func IndexByName(name string) (int, bool) {
	idx, ok := indexNames[name]
	return idx, ok
}

func spellLevelIndexValue(level *int) string {
	if level == nil {
		return "0"
	}
	return strconv.Itoa(*level)
}
