package store

import (
	"bytes"
	"context"
	"sync"

	"github.com/Thomvis/Construct-sub002/internal/metrics"
	"github.com/Thomvis/Construct-sub002/internal/queryir"
)

// changeFeed fans commit notifications out to observers. Each observer has a
// one-slot mailbox, so a slow observer coalesces bursts of commits into one
// refresh instead of blocking the writer.
type changeFeed struct {
	mu      sync.Mutex
	next    uint64
	subs    map[uint64]chan struct{}
	metrics *metrics.Metrics
}

func newChangeFeed(m *metrics.Metrics) *changeFeed {
	return &changeFeed{subs: make(map[uint64]chan struct{}), metrics: m}
}

func (f *changeFeed) subscribe() (uint64, <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	ch := make(chan struct{}, 1)
	f.subs[f.next] = ch
	return f.next, ch
}

func (f *changeFeed) unsubscribe(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, id)
}

// publish never blocks.
func (f *changeFeed) publish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
			f.metrics.RecordCoalescedNotification()
		}
	}
}

// Snapshot is one emission of an observation: the full current result, or the
// error that prevented reading it.
type Snapshot struct {
	Records []Record
	Err     error
}

// Subscription is a live observation of a request.
//
// C receives the current result immediately, then again whenever a commit
// changes it. Consecutive identical results (same keys and values, in order)
// are emitted once. C is closed when the subscription ends: on Cancel, when
// the context passed to Observe is done, or when the store is closed.
type Subscription struct {
	C <-chan Snapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel ends the subscription and waits until its goroutine has exited.
// After Cancel returns nothing more is delivered on C.
func (s *Subscription) Cancel() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has ended.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Observe watches the record under key. Snapshots hold zero or one record.
func (s *Store) Observe(ctx context.Context, key string) *Subscription {
	return s.ObserveAll(ctx, queryir.ForKeys(key))
}

// ObserveAll watches the records matching req.
func (s *Store) ObserveAll(ctx context.Context, req queryir.Request) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Snapshot)
	sub := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}

	s.lifecycleMu.Lock()
	select {
	case <-s.closed:
		s.lifecycleMu.Unlock()
		cancel()
		close(out)
		close(sub.done)
		return sub
	default:
	}
	s.observers.Add(1)
	s.lifecycleMu.Unlock()

	id, notify := s.feed.subscribe()
	s.metrics.SubscriptionOpened()

	go func() {
		defer s.observers.Done()
		defer close(sub.done)
		defer close(out)
		defer s.metrics.SubscriptionClosed()
		defer s.feed.unsubscribe(id)
		defer cancel()

		var last []Record
		first := true
		for {
			records, err := s.FetchAllRaw(ctx, req)
			if ctx.Err() != nil {
				return
			}

			if err != nil || first || !sameRecords(last, records) {
				select {
				case out <- Snapshot{Records: records, Err: err}:
				case <-ctx.Done():
					return
				case <-s.closed:
					return
				}
				if err == nil {
					last = records
					first = false
				}
			}

			select {
			case <-notify:
			case <-ctx.Done():
				return
			case <-s.closed:
				return
			}
		}
	}()

	return sub
}

// sameRecords compares results by key and value; modification times alone
// do not make a new emission.
func sameRecords(a, b []Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || !bytes.Equal(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}
