package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thomvis/Construct-sub002/internal/queryir"
)

const observeTimeout = 5 * time.Second

// nextValue receives the next snapshot and decodes its single int value.
func nextValue(t *testing.T, sub *Subscription) *int {
	t.Helper()
	select {
	case snap, ok := <-sub.C:
		require.True(t, ok, "subscription closed early")
		require.NoError(t, snap.Err)
		if len(snap.Records) == 0 {
			return nil
		}
		v, err := Decode[int](snap.Records[0])
		require.NoError(t, err)
		return &v
	case <-time.After(observeTimeout):
		t.Fatalf("timed out waiting for snapshot")
		return nil
	}
}

func intPtr(v int) *int { return &v }

func TestObserve_EmitsDeduplicatedValues(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sub := s.Observe(ctx, "1")
	defer sub.Cancel()

	var values []*int
	values = append(values, nextValue(t, sub))

	putInt(t, s, "1", 1)
	values = append(values, nextValue(t, sub))

	putInt(t, s, "1", 1) // same value, no emission
	putInt(t, s, "1", 2)
	values = append(values, nextValue(t, sub))

	putInt(t, s, "1", 3)
	values = append(values, nextValue(t, sub))

	_, err := s.Remove(ctx, "1")
	require.NoError(t, err)
	values = append(values, nextValue(t, sub))

	assert.Equal(t, []*int{nil, intPtr(1), intPtr(2), intPtr(3), nil}, values)
}

func TestObserveAll_ReemitsOnMatchingWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sub := s.ObserveAll(ctx, queryir.KeyPrefix("even_"))
	defer sub.Cancel()

	snap := <-sub.C
	require.NoError(t, snap.Err)
	assert.Empty(t, snap.Records)

	putInt(t, s, "odd_1", 1) // does not change the result
	putInt(t, s, "even_2", 2)

	select {
	case snap = <-sub.C:
	case <-time.After(observeTimeout):
		t.Fatal("timed out")
	}
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "even_2", snap.Records[0].Key)
}

func TestObserve_CancelStopsDelivery(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sub := s.Observe(ctx, "k")
	<-sub.C

	sub.Cancel()
	putInt(t, s, "k", 1)

	_, ok := <-sub.C
	assert.False(t, ok, "channel is closed after Cancel")

	select {
	case <-sub.Done():
	default:
		t.Fatal("Done must be closed after Cancel returns")
	}
}

func TestObserve_ContextCancel(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub := s.Observe(ctx, "k")
	<-sub.C
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(observeTimeout):
		t.Fatal("subscription did not end on context cancel")
	}
}

func TestObserve_StoreCloseEndsSubscriptions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sub := s.Observe(ctx, "k")
	<-sub.C

	require.NoError(t, s.Close())

	select {
	case <-sub.Done():
	case <-time.After(observeTimeout):
		t.Fatal("subscription did not end on store close")
	}

	late := s.Observe(ctx, "k")
	_, ok := <-late.C
	assert.False(t, ok, "observing a closed store yields a closed channel")
	late.Cancel()
}

func TestObserve_RolledBackWriteDoesNotEmit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sub := s.Observe(ctx, "k")
	defer sub.Cancel()
	assert.Nil(t, nextValue(t, sub))

	_ = s.Transaction(ctx, func(tx *Tx) error {
		if err := tx.Put(ctx, "k", []byte(`9`)); err != nil {
			return err
		}
		return errBoom
	})
	putInt(t, s, "k", 1)

	assert.Equal(t, intPtr(1), nextValue(t, sub))
}

func TestSameRecords(t *testing.T) {
	a := []Record{{Key: "k", Value: []byte("1"), ModifiedAt: time.Unix(1, 0)}}
	b := []Record{{Key: "k", Value: []byte("1"), ModifiedAt: time.Unix(2, 0)}}
	c := []Record{{Key: "k", Value: []byte("2")}}

	assert.True(t, sameRecords(a, b), "timestamps are ignored")
	assert.False(t, sameRecords(a, c))
	assert.False(t, sameRecords(a, nil))
	assert.True(t, sameRecords(nil, []Record{}))
}

func TestObserveValue_Decodes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sub := ObserveValue[int](ctx, s, "k")
	defer sub.Cancel()

	recv := func() TypedSnapshot[int] {
		select {
		case snap := <-sub.C:
			return snap
		case <-time.After(observeTimeout):
			t.Fatal("timed out")
			return TypedSnapshot[int]{}
		}
	}

	first := recv()
	require.NoError(t, first.Err)
	assert.Empty(t, first.Values)

	putInt(t, s, "k", 7)
	assert.Equal(t, []int{7}, recv().Values)

	require.NoError(t, s.Put(ctx, "k", []byte(`"text"`)))
	var de *DecodeError
	assert.ErrorAs(t, recv().Err, &de)
}

func TestObserveValue_Cancel(t *testing.T) {
	s := createTestStore(t)

	sub := ObserveValue[int](context.Background(), s, "k")
	<-sub.C
	sub.Cancel()

	_, ok := <-sub.C
	assert.False(t, ok)
}
