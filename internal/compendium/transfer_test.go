package compendium

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thomvis/Construct-sub002/internal/metrics"
	"github.com/Thomvis/Construct-sub002/internal/store"
)

func TestTransfer_MoveWithinRealm(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	docs := createRealmAndDocs(t, c, "a", "source", "target")
	goblin := putMonster(t, c, docs[0], "Goblin", "1/4")
	putMonster(t, c, docs[0], "Orc", "1/2")

	moved, err := c.Transfer(ctx, SingleKey{Key: goblin.RawKey()}, Move, docs[1].Key(), ConflictSkip)
	require.NoError(t, err)
	assert.Equal(t, []string{goblin.RawKey()}, moved)

	assert.Equal(t, []string{"Orc"}, entryTitles(t, c, docs[0]))
	assert.Equal(t, []string{"Goblin"}, entryTitles(t, c, docs[1]))

	e, err := c.Get(ctx, EntryKey(ItemTypeMonster, docs[1].Key(), "Goblin"))
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, docs[1].Ref(), e.Document)
	assert.Equal(t, goblin.Item, e.Item)
}

func TestTransfer_MoveBetweenRealmsRewritesReferences(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	source := createRealmAndDocs(t, c, "a", "source")[0]
	target := createRealmAndDocs(t, c, "b", "target")[0]

	bob := putCharacter(t, c, source, "Bob")
	goblin := putMonster(t, c, source, "Goblin", "1/4")

	group := NewEntry(source, &Group{
		ID:      uuid.MustParse("5a3b1f0e-1111-4c2a-9a57-3c5f0f4d2b10"),
		Name:    "Adventurers",
		Members: []ItemReference{ReferenceTo(bob), ReferenceTo(goblin)},
	}, Origin{Kind: OriginCreated})
	require.NoError(t, c.Put(ctx, group))

	p := &party{ID: "p", Members: []ItemReference{ReferenceTo(bob)}}
	require.NoError(t, c.Store().PutEntity(ctx, p))

	moved, err := c.Transfer(ctx, MultipleKeys{Keys: []string{bob.RawKey(), goblin.RawKey()}},
		Move, target.Key(), ConflictSkip)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{bob.RawKey(), goblin.RawKey()}, moved)

	newBob := EntryKey(ItemTypeCharacter, target.Key(), bob.Item.Identifier())
	newGoblin := EntryKey(ItemTypeMonster, target.Key(), "Goblin")

	g, err := c.Get(ctx, group.RawKey())
	require.NoError(t, err)
	require.NotNil(t, g)
	members := g.Item.(*Group).Members
	assert.Equal(t, newBob, members[0].Key)
	assert.Equal(t, newGoblin, members[1].Key)

	got, err := c.Store().GetEntity(ctx, p.RawKey())
	require.NoError(t, err)
	assert.Equal(t, newBob, got.(*party).Members[0].Key)

	e, err := c.Get(ctx, newBob)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "b", e.RealmID)
}

func TestTransfer_KeepBoth(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	docs := createRealmAndDocs(t, c, "a", "sourceDoc", "targetDoc")
	a := putMonster(t, c, docs[0], "Monster A", "1")
	putMonster(t, c, docs[1], "Monster A", "2")

	moved, err := c.Transfer(ctx, SingleKey{Key: a.RawKey()}, Move, docs[1].Key(), ConflictKeepBoth)
	require.NoError(t, err)
	assert.Equal(t, []string{a.RawKey()}, moved)

	assert.Empty(t, entryTitles(t, c, docs[0]))
	assert.Equal(t, []string{"Monster A", "Monster A 2"}, entryTitles(t, c, docs[1]))

	renamed, err := c.Get(ctx, EntryKey(ItemTypeMonster, docs[1].Key(), "Monster A 2"))
	require.NoError(t, err)
	require.NotNil(t, renamed)
	assert.Equal(t, "1", renamed.Item.(*Monster).ChallengeRating)
}

func TestTransfer_KeepBothRepeated(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	docs := createRealmAndDocs(t, c, "a", "sourceDoc", "targetDoc")
	a := putMonster(t, c, docs[0], "Monster A", "1")
	putMonster(t, c, docs[1], "Monster A", "2")

	for i := 0; i < 2; i++ {
		_, err := c.Transfer(ctx, SingleKey{Key: a.RawKey()}, Copy, docs[1].Key(), ConflictKeepBoth)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"Monster A"}, entryTitles(t, c, docs[0]))
	assert.Equal(t, []string{"Monster A", "Monster A 2", "Monster A 3"}, entryTitles(t, c, docs[1]))
}

func TestTransfer_KeepBothLogsSkipWhenNoNameIsFree(t *testing.T) {
	var logs bytes.Buffer
	c := createTestCompendium(t, store.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	ctx := context.Background()
	docs := createRealmAndDocs(t, c, "a", "sourceDoc", "targetDoc")
	a := putMonster(t, c, docs[0], "Monster A", "1")
	for _, name := range []string{"Monster A", "Monster A 2", "Monster A 3", "Monster A 4"} {
		putMonster(t, c, docs[1], name, "2")
	}

	moved, err := c.Transfer(ctx, SingleKey{Key: a.RawKey()}, Copy, docs[1].Key(), ConflictKeepBoth)
	require.NoError(t, err)
	assert.Empty(t, moved)
	assert.Equal(t, []string{"Monster A", "Monster A 2", "Monster A 3", "Monster A 4"}, entryTitles(t, c, docs[1]))

	assert.Contains(t, logs.String(), "no free name for kept entry, skipped")
	assert.Contains(t, logs.String(), a.RawKey())
}

func TestTransfer_Overwrite(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	docs := createRealmAndDocs(t, c, "a", "sourceDoc", "targetDoc")
	a := putMonster(t, c, docs[0], "Monster A", "1")
	putMonster(t, c, docs[1], "Monster A", "2")

	moved, err := c.Transfer(ctx, SingleKey{Key: a.RawKey()}, Move, docs[1].Key(), ConflictOverwrite)
	require.NoError(t, err)
	assert.Equal(t, []string{a.RawKey()}, moved)

	assert.Empty(t, entryTitles(t, c, docs[0]))
	e, err := c.Get(ctx, EntryKey(ItemTypeMonster, docs[1].Key(), "Monster A"))
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "1", e.Item.(*Monster).ChallengeRating)
}

func TestTransfer_Skip(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	docs := createRealmAndDocs(t, c, "a", "sourceDoc", "targetDoc")
	a := putMonster(t, c, docs[0], "Monster A", "1")
	putMonster(t, c, docs[0], "Monster B", "1")
	putMonster(t, c, docs[1], "Monster A", "2")

	moved, err := c.Transfer(ctx, Query{Request: FetchRequest{Filters: Filters{Source: ptr(docs[0].Key())}}},
		Move, docs[1].Key(), ConflictSkip)
	require.NoError(t, err)
	assert.Equal(t, []string{EntryKey(ItemTypeMonster, docs[0].Key(), "Monster B")}, moved)

	assert.Equal(t, []string{"Monster A"}, entryTitles(t, c, docs[0]))
	assert.Equal(t, []string{"Monster A", "Monster B"}, entryTitles(t, c, docs[1]))

	kept, err := c.Get(ctx, a.RawKey())
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestTransfer_SkipIsIdempotent(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	docs := createRealmAndDocs(t, c, "a", "sourceDoc", "targetDoc")
	a := putMonster(t, c, docs[0], "Monster A", "1")

	_, err := c.Transfer(ctx, SingleKey{Key: a.RawKey()}, Copy, docs[1].Key(), ConflictSkip)
	require.NoError(t, err)
	once := digest(t, c)

	copied, err := c.Transfer(ctx, SingleKey{Key: a.RawKey()}, Copy, docs[1].Key(), ConflictSkip)
	require.NoError(t, err)
	assert.Empty(t, copied)
	assert.Equal(t, once, digest(t, c))
}

func TestTransfer_CopyIntoSameDocument(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	doc := createRealmAndDocs(t, c, "a", "doc")[0]
	a := putMonster(t, c, doc, "Monster A", "1")
	before := digest(t, c)

	copied, err := c.Transfer(ctx, SingleKey{Key: a.RawKey()}, Copy, doc.Key(), ConflictSkip)
	require.NoError(t, err)
	assert.NotNil(t, copied)
	assert.Empty(t, copied)
	assert.Equal(t, before, digest(t, c))
}

func TestTransfer_CopyKeepsSource(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	docs := createRealmAndDocs(t, c, "a", "sourceDoc", "targetDoc")
	a := putMonster(t, c, docs[0], "Monster A", "1")

	p := &party{ID: "p", Members: []ItemReference{ReferenceTo(a)}}
	require.NoError(t, c.Store().PutEntity(ctx, p))

	copied, err := c.Transfer(ctx, SingleKey{Key: a.RawKey()}, Copy, docs[1].Key(), ConflictSkip)
	require.NoError(t, err)
	assert.Equal(t, []string{a.RawKey()}, copied)

	assert.Equal(t, []string{"Monster A"}, entryTitles(t, c, docs[0]))
	assert.Equal(t, []string{"Monster A"}, entryTitles(t, c, docs[1]))

	// references keep pointing at the original
	got, err := c.Store().GetEntity(ctx, p.RawKey())
	require.NoError(t, err)
	assert.Equal(t, a.RawKey(), got.(*party).Members[0].Key)
}

func TestTransfer_GroupsAreNotRelocated(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	docs := createRealmAndDocs(t, c, "a", "sourceDoc", "targetDoc")
	group := NewEntry(docs[0], &Group{ID: uuid.New(), Name: "Party"}, Origin{Kind: OriginCreated})
	require.NoError(t, c.Put(ctx, group))

	moved, err := c.Transfer(ctx, SingleKey{Key: group.RawKey()}, Move, docs[1].Key(), ConflictSkip)
	require.NoError(t, err)
	assert.Empty(t, moved)
	assert.Equal(t, []string{"Party"}, entryTitles(t, c, docs[0]))
}

func TestTransfer_MissingTargetWritesNothing(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	doc := createRealmAndDocs(t, c, "a", "doc")[0]
	a := putMonster(t, c, doc, "Monster A", "1")
	before := digest(t, c)

	_, err := c.Transfer(ctx, SingleKey{Key: a.RawKey()}, Move, DocumentKey{RealmID: "a", DocumentID: "missing"}, ConflictSkip)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, digest(t, c))
}

func TestTransfer_FailedRecordRollsBack(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	docs := createRealmAndDocs(t, c, "a", "sourceDoc", "targetDoc")
	a := putMonster(t, c, docs[0], "Monster A", "1")
	broken := EntryKey(ItemTypeMonster, docs[0].Key(), "Broken")
	require.NoError(t, c.Store().Put(ctx, broken, []byte("{not json")))
	before := digest(t, c)

	_, err := c.Transfer(ctx, MultipleKeys{Keys: []string{a.RawKey(), broken}}, Move, docs[1].Key(), ConflictSkip)
	require.Error(t, err)
	assert.Equal(t, before, digest(t, c))
}

func TestTransfer_RejectsInvalidArguments(t *testing.T) {
	c := createTestCompendium(t)
	ctx := context.Background()
	doc := createRealmAndDocs(t, c, "a", "doc")[0]

	_, err := c.Transfer(ctx, SingleKey{Key: "entry::x"}, TransferMode("teleport"), doc.Key(), ConflictSkip)
	assert.Error(t, err)

	_, err = c.Transfer(ctx, SingleKey{Key: "entry::x"}, Move, doc.Key(), TransferConflictResolution("merge"))
	assert.Error(t, err)

	_, err = c.Transfer(ctx, Query{Request: FetchRequest{Filters: Filters{MinCR: "lots"}}}, Move, doc.Key(), ConflictSkip)
	assert.Error(t, err)
}

func TestParseTransferOptions(t *testing.T) {
	mode, err := ParseTransferMode("copy")
	require.NoError(t, err)
	assert.Equal(t, Copy, mode)

	cr, err := ParseTransferConflictResolution("keepBoth")
	require.NoError(t, err)
	assert.Equal(t, ConflictKeepBoth, cr)

	_, err = ParseTransferConflictResolution("keepboth")
	assert.Error(t, err)
}

func TestTransfer_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := createTestCompendium(t, store.WithMetrics(metrics.New(reg)))
	ctx := context.Background()
	docs := createRealmAndDocs(t, c, "a", "sourceDoc", "targetDoc")
	a := putMonster(t, c, docs[0], "Monster A", "1")
	b := putMonster(t, c, docs[0], "Monster B", "1")
	putMonster(t, c, docs[1], "Monster B", "1")

	_, err := c.Transfer(ctx, MultipleKeys{Keys: []string{a.RawKey(), b.RawKey()}}, Copy, docs[1].Key(), ConflictSkip)
	require.NoError(t, err)

	expected := `
# HELP construct_transfer_items_total Items processed by transfers by mode and outcome
# TYPE construct_transfer_items_total counter
construct_transfer_items_total{mode="copy",outcome="copied"} 1
construct_transfer_items_total{mode="copy",outcome="skipped"} 1
`
	require.NoError(t, promtestutil.GatherAndCompare(reg, strings.NewReader(expected), "construct_transfer_items_total"))
}

func ptr[T any](v T) *T { return &v }
