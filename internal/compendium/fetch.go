package compendium

import (
	"github.com/Thomvis/Construct-sub002/internal/queryir"
)

// OrderKey selects the field entries are ordered by.
type OrderKey string

const (
	OrderTitle           OrderKey = "title"
	OrderChallengeRating OrderKey = "challengeRating"
	OrderSpellLevel      OrderKey = "spellLevel"
)

func (k OrderKey) index() int {
	switch k {
	case OrderChallengeRating:
		return IndexChallengeRating
	case OrderSpellLevel:
		return IndexSpellLevel
	default:
		return IndexTitle
	}
}

// Order orders entries by one field.
type Order struct {
	Key       OrderKey
	Ascending bool
}

// Filters restrict which entries are fetched. Zero fields do not restrict.
type Filters struct {
	Types       []ItemType
	Source      *DocumentKey
	Realm       string
	MinCR       string
	MaxCR       string
	MonsterType string
}

// FetchRequest describes a read of compendium entries.
type FetchRequest struct {
	Search  string
	Filters Filters
	Order   *Order
	Range   *queryir.Range
}

// Request compiles r into a store request. Results are always ordered by
// title, either as the requested order or as the fallback after it.
func (r FetchRequest) Request() (queryir.Request, error) {
	var req queryir.Request
	if len(r.Filters.Types) == 0 {
		req = queryir.KeyPrefix(EntryPrefix.Scope())
	} else {
		prefixes := make([]string, 0, len(r.Filters.Types))
		for _, t := range r.Filters.Types {
			prefixes = append(prefixes, EntryTypeScope(t))
		}
		req = queryir.KeyPrefix(prefixes...)
	}

	if r.Search != "" {
		req = req.WithSearch(r.Search)
	}

	f := r.Filters
	if f.Source != nil {
		req = req.WithFilter(IndexSourceDocument, queryir.Equals{Value: f.Source.sourceIndexValue()})
	}
	if f.Realm != "" {
		req = req.WithFilter(IndexRealm, queryir.Equals{Value: f.Realm})
	}
	if f.MinCR != "" {
		v, err := ChallengeRatingIndexValue(f.MinCR)
		if err != nil {
			return queryir.Request{}, err
		}
		req = req.WithFilter(IndexChallengeRating, queryir.GreaterThanOrEqual{Value: v})
	}
	if f.MaxCR != "" {
		v, err := ChallengeRatingIndexValue(f.MaxCR)
		if err != nil {
			return queryir.Request{}, err
		}
		req = req.WithFilter(IndexChallengeRating, queryir.LessThanOrEqual{Value: v})
	}
	if f.MonsterType != "" {
		req = req.WithFilter(IndexMonsterType, queryir.Equals{Value: f.MonsterType})
	}

	if r.Order != nil {
		req = req.OrderedBy(r.Order.Key.index(), r.Order.Ascending)
	}
	if r.Order == nil || r.Order.Key.index() != IndexTitle {
		req = req.OrderedBy(IndexTitle, true)
	}

	if r.Range != nil {
		req = req.WithRange(r.Range.Offset, r.Range.Limit)
	}
	return req, nil
}
