package store

import (
	"context"

	"github.com/Thomvis/Construct-sub002/internal/queryir"
)

// TypedSnapshot is a Snapshot with its records decoded as V.
type TypedSnapshot[V any] struct {
	Values []V
	Err    error
}

// TypedSubscription is a Subscription delivering decoded values.
type TypedSubscription[V any] struct {
	C <-chan TypedSnapshot[V]

	sub  *Subscription
	done chan struct{}
}

// Cancel ends the subscription and waits until nothing more can be delivered.
func (s *TypedSubscription[V]) Cancel() {
	s.sub.Cancel()
	<-s.done
}

// Done is closed once the subscription has ended.
func (s *TypedSubscription[V]) Done() <-chan struct{} {
	return s.done
}

// ObserveValue watches the value under key. Snapshots hold zero or one value.
func ObserveValue[V any](ctx context.Context, s *Store, key string) *TypedSubscription[V] {
	return ObserveAllValues[V](ctx, s, queryir.ForKeys(key))
}

// ObserveAllValues watches the values matching req. A record that does not
// decode turns its snapshot into an error snapshot.
func ObserveAllValues[V any](ctx context.Context, s *Store, req queryir.Request) *TypedSubscription[V] {
	sub := s.ObserveAll(ctx, req)
	out := make(chan TypedSnapshot[V])
	typed := &TypedSubscription[V]{C: out, sub: sub, done: make(chan struct{})}

	go func() {
		defer close(typed.done)
		defer close(out)

		for snap := range sub.C {
			ts := TypedSnapshot[V]{Err: snap.Err}
			if snap.Err == nil {
				ts.Values = make([]V, 0, len(snap.Records))
				for _, rec := range snap.Records {
					v, err := Decode[V](rec)
					if err != nil {
						ts = TypedSnapshot[V]{Err: err}
						break
					}
					ts.Values = append(ts.Values, v)
				}
			}

			select {
			case out <- ts:
			case <-sub.Done():
				return
			}
		}
	}()

	return typed
}
