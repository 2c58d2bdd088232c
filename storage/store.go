package storage

import (
	"context"
	"errors"
)

// ErrUnavailable wraps backend failures.
var ErrUnavailable = errors.New("storage unavailable")

// Entry is a single key/value pair written by [Store.Set].
type Entry struct {
	Key   string
	Value string
}

// Store is a string key/value store scoped to one client.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes all entries as one atomic step.
	Set(ctx context.Context, entries ...Entry) error
	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Update writes set and removes del as one atomic step. A key in both is removed.
	Update(ctx context.Context, set []Entry, del []string) error
}
