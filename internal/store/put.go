package store

import (
	"github.com/Thomvis/Construct-sub002/internal/entity"
)

// derived holds the rows a put writes next to the record.
// nil means "no rows of that kind".
type derived struct {
	fts   *entity.FTSDocument
	index entity.IndexValues
}

type putConfig struct {
	fts      *entity.FTSDocument
	ftsSet   bool
	index    entity.IndexValues
	indexSet bool
}

// PutOption overrides the derived rows of a put.
type PutOption func(*putConfig)

// WithFTS sets the record's full-text projection.
func WithFTS(doc entity.FTSDocument) PutOption {
	return func(c *putConfig) {
		c.fts = &doc
		c.ftsSet = true
	}
}

// WithoutFTS writes no full-text row, even for a Searchable entity.
func WithoutFTS() PutOption {
	return func(c *putConfig) {
		c.fts = nil
		c.ftsSet = true
	}
}

// WithIndexValues sets the record's secondary index values.
func WithIndexValues(values entity.IndexValues) PutOption {
	return func(c *putConfig) {
		c.index = values
		c.indexSet = true
	}
}

// WithoutIndexValues writes no secondary index rows, even for an Indexable
// entity.
func WithoutIndexValues() PutOption {
	return func(c *putConfig) {
		c.index = nil
		c.indexSet = true
	}
}

// resolveDerived applies opts, probing e for capabilities the options leave
// unset. e may be nil for raw puts.
func resolveDerived(e entity.Entity, opts []PutOption) derived {
	var c putConfig
	for _, opt := range opts {
		opt(&c)
	}

	d := derived{fts: c.fts, index: c.index}
	if !c.ftsSet {
		if s, ok := e.(entity.Searchable); ok {
			doc := s.FTSDocument()
			d.fts = &doc
		}
	}
	if !c.indexSet {
		if ix, ok := e.(entity.Indexable); ok {
			d.index = ix.SecondaryIndexValues()
		}
	}
	return d
}
