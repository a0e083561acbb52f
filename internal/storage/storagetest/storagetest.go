// Package storagetest holds the behaviour every storage.KeyValue backend must share.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"fintrack/internal/storage"
)

// Run exercises kv. The backend must start empty.
func Run(t *testing.T, kv storage.KeyValue) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		if _, err := kv.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		want := []byte(`[{"id":"1"}]`)
		if err := kv.Put(ctx, "expenses", want); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := kv.Get(ctx, "expenses")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("got %q, want %q", got, want)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		if err := kv.Put(ctx, "expenses", []byte("[]")); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := kv.Get(ctx, "expenses")
		if err != nil || string(got) != "[]" {
			t.Fatalf("got %q (%v), want []", got, err)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		if err := kv.Put(ctx, "other", []byte("x")); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := kv.Get(ctx, "expenses")
		if err != nil || string(got) != "[]" {
			t.Fatalf("other key leaked into expenses: %q (%v)", got, err)
		}
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		got, err := kv.Get(ctx, "other")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		got[0] = 'y'
		again, _ := kv.Get(ctx, "other")
		if string(again) != "x" {
			t.Fatalf("stored value mutated through returned slice: %q", again)
		}
	})
}
