package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/storage/storagetest"
)

func TestFileStore(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	storagetest.Run(t, s)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	ctx := context.Background()

	s, err := New(dir, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Put(ctx, "expenses", []byte(`[]`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	reopened, err := New(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, "expenses")
	if err != nil || string(got) != "[]" {
		t.Fatalf("got %q (%v)", got, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "expenses.json" {
		t.Fatalf("unexpected directory contents %v", entries)
	}
}

func TestFileStoreEscapesKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(context.Background(), "../escape", []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.json")); err == nil {
		t.Fatalf("key escaped the data directory")
	}
}
