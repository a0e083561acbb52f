// Package storage defines the key-value port the entry store persists through.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// KeyValue is a minimal durable string-keyed blob store. Values are opaque to the
// backend. Put replaces the whole value.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
