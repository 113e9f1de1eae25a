package compendium

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/store"
	"github.com/Thomvis/Construct-sub002/internal/testutil"
)

// party is a non-compendium record holding references to entries.
type party struct {
	ID      string          `json:"id"`
	Members []ItemReference `json:"members"`
}

func (*party) EntityPrefix() entity.Prefix { return "party" }
func (p *party) RawKey() string            { return entity.Compose("party", p.ID) }

func (p *party) UpdateItemReferences(rewrite func(string) (string, bool)) bool {
	changed := false
	for i := range p.Members {
		changed = UpdateReference(&p.Members[i], rewrite) || changed
	}
	return changed
}

func createTestCompendium(t *testing.T, opts ...store.Option) *Compendium {
	t.Helper()
	types := append(Types(), entity.TypeOf("party", func() *party { return &party{} }))
	opts = append([]store.Option{
		store.WithRegistry(entity.MustRegistry(types...)),
		store.WithClock(testutil.NewDeterministicClock()),
		store.WithLogger(testutil.DiscardLogger()),
	}, opts...)
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s)
}

func createRealmAndDocs(t *testing.T, c *Compendium, realm string, docs ...string) []SourceDocument {
	t.Helper()
	ctx := context.Background()
	if exists, _ := c.Contains(ctx, RealmKey(realm)); !exists {
		require.NoError(t, c.CreateRealm(ctx, Realm{ID: realm, DisplayName: realm}))
	}
	out := make([]SourceDocument, 0, len(docs))
	for _, id := range docs {
		d := SourceDocument{ID: id, RealmID: realm, DisplayName: id}
		require.NoError(t, c.CreateDocument(ctx, d))
		out = append(out, d)
	}
	return out
}

func putMonster(t *testing.T, c *Compendium, doc SourceDocument, name, cr string) *Entry {
	t.Helper()
	e := NewEntry(doc, &Monster{Name: name, ChallengeRating: cr}, Origin{Kind: OriginCreated})
	require.NoError(t, c.Put(context.Background(), e))
	return e
}

func putCharacter(t *testing.T, c *Compendium, doc SourceDocument, name string) *Entry {
	t.Helper()
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(doc.RawKey()+name))
	e := NewEntry(doc, &Character{ID: id, Name: name, Level: 1}, Origin{Kind: OriginCreated})
	require.NoError(t, c.Put(context.Background(), e))
	return e
}

func entryTitles(t *testing.T, c *Compendium, doc SourceDocument) []string {
	t.Helper()
	key := doc.Key()
	entries, err := c.Fetch(context.Background(), FetchRequest{Filters: Filters{Source: &key}})
	require.NoError(t, err)
	out := []string{}
	for _, e := range entries {
		out = append(out, e.Item.Title())
	}
	return out
}

func digest(t *testing.T, c *Compendium) string {
	t.Helper()
	d, err := c.Store().Digest(context.Background())
	require.NoError(t, err)
	return d
}
