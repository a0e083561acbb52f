// Package store owns the ordered entry sequence and keeps it in sync with a
// storage.KeyValue backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// DefaultKey is the storage key of the entry sequence.
const DefaultKey = "expenses"

var (
	ErrNotFound    = errors.New("entry not found")
	ErrDuplicateID = errors.New("entry id already exists")
)

// Notifier is told about successful mutations. Failures are logged and ignored.
type Notifier interface {
	EntryAdded(ctx context.Context, e core.Entry) error
	EntryRemoved(ctx context.Context, e core.Entry) error
}

type Options struct {
	Key      string
	Notifier Notifier
	Logger   *log.Logger
}

// Store is the single owner of the entry sequence, newest first.
type Store struct {
	mu       sync.RWMutex
	kv       storage.KeyValue
	key      string
	entries  []core.Entry
	revision uint64
	notifier Notifier
	logger   *log.Logger
	sl       *log.StructuredLogger
}

// Open loads the sequence from kv. Missing or unreadable data yields an empty store.
func Open(ctx context.Context, kv storage.KeyValue, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(log.ComponentStore)

	s := &Store{
		kv:       kv,
		key:      opts.Key,
		notifier: opts.Notifier,
		logger:   logger,
		sl:       log.NewStructuredLogger(logger),
	}
	s.entries = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []core.Entry {
	data, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.InfoContext(ctx, "No stored entries, starting empty", log.FieldStorageKey, s.key)
		return nil
	case err != nil:
		s.logger.WarnContext(ctx, "Failed to read stored entries, starting empty",
			log.FieldStorageKey, s.key,
			log.FieldOperation, log.OpLoad,
			log.FieldError, err.Error())
		return nil
	}

	entries, dropped, err := decode(data)
	if err != nil {
		s.logger.WarnContext(ctx, "Stored entries are corrupt, starting empty",
			log.FieldStorageKey, s.key,
			log.FieldOperation, log.OpLoad,
			log.FieldError, err.Error())
		return nil
	}
	if dropped > 0 {
		s.logger.WarnContext(ctx, "Dropped invalid stored entries",
			log.FieldStorageKey, s.key,
			"dropped", dropped)
	}
	s.logger.InfoContext(ctx, "Loaded stored entries", log.FieldStorageKey, s.key, "count", len(entries))
	return entries
}

// persist writes next and swaps it in. On failure the current sequence is kept.
// Caller holds the write lock.
func (s *Store) persist(ctx context.Context, next []core.Entry) error {
	data, err := encode(next)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		s.sl.LogError(ctx, "Failed to persist entries", err, log.ComponentStore, log.OpPersist,
			log.NewFields().WithStorageKey(s.key))
		return fmt.Errorf("persist entries: %w", err)
	}
	s.entries = next
	s.revision++
	return nil
}

// Add validates e and puts it at the front of the sequence.
func (s *Store) Add(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	for _, existing := range s.entries {
		if existing.ID == e.ID {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
		}
	}
	next := make([]core.Entry, 0, len(s.entries)+1)
	next = append(next, e)
	next = append(next, s.entries...)
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	rev := s.revision
	s.mu.Unlock()

	s.sl.LogEntryAdded(ctx, e.ID, string(e.Kind), e.Description, e.Amount.Cents, string(e.Category), rev)
	if s.notifier != nil {
		if err := s.notifier.EntryAdded(ctx, e); err != nil {
			s.logger.WarnContext(ctx, "Entry notification failed", log.FieldEntryID, e.ID, log.FieldError, err.Error())
		}
	}
	return nil
}

// Remove deletes the entry with the given id and returns it.
func (s *Store) Remove(ctx context.Context, id string) (core.Entry, error) {
	s.mu.Lock()
	idx := -1
	for i, e := range s.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return core.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := s.entries[idx]
	next := make([]core.Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:idx]...)
	next = append(next, s.entries[idx+1:]...)
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Entry{}, err
	}
	rev := s.revision
	s.mu.Unlock()

	s.sl.LogEntryRemoved(ctx, id, rev)
	if s.notifier != nil {
		if err := s.notifier.EntryRemoved(ctx, removed); err != nil {
			s.logger.WarnContext(ctx, "Entry notification failed", log.FieldEntryID, id, log.FieldError, err.Error())
		}
	}
	return removed, nil
}

// Entries returns a copy of the sequence, newest first.
func (s *Store) Entries() []core.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Snapshot returns the entries together with the revision they belong to.
func (s *Store) Snapshot() ([]core.Entry, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Entry, len(s.entries))
	copy(out, s.entries)
	return out, s.revision
}

// Revision increases by one on every successful mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
