package store

import (
	"context"
	"encoding/json"

	"github.com/Thomvis/Construct-sub002/internal/queryir"
)

// Result is one decoded record from FetchAllCatching.
type Result[V any] struct {
	Key   string
	Value V
	Err   error // *DecodeError when the value could not be decoded
}

// Decode decodes a record's value as V.
func Decode[V any](rec Record) (V, error) {
	var v V
	if err := json.Unmarshal(rec.Value, &v); err != nil {
		var zero V
		return zero, &DecodeError{Key: rec.Key, Raw: rec.Value, Err: err}
	}
	return v, nil
}

// Get returns the value under key decoded as V. ok is false when there is no
// record; a record that does not decode is an error.
func Get[V any](ctx context.Context, r Reader, key string) (v V, ok bool, err error) {
	rec, err := r.GetRaw(ctx, key)
	if err != nil || rec == nil {
		return v, false, err
	}
	v, err = Decode[V](*rec)
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

// FetchAll returns the values matching req decoded as V. The first record
// that does not decode fails the whole fetch.
func FetchAll[V any](ctx context.Context, r Reader, req queryir.Request) ([]V, error) {
	records, err := r.FetchAllRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]V, 0, len(records))
	for _, rec := range records {
		v, err := Decode[V](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FetchAllCatching is FetchAll reporting decode failures per record, so one
// corrupt record does not hide the rest.
func FetchAllCatching[V any](ctx context.Context, r Reader, req queryir.Request) ([]Result[V], error) {
	records, err := r.FetchAllRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]Result[V], 0, len(records))
	for _, rec := range records {
		v, err := Decode[V](rec)
		out = append(out, Result[V]{Key: rec.Key, Value: v, Err: err})
	}
	return out, nil
}
