// Package memory is an in-process storage backend for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"fintrack/internal/storage"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("memory store closed")

type Store struct {
	mu     sync.Mutex
	items  map[string][]byte
	closed bool

	// FailPuts makes every Put fail with the given error. Used to simulate quota or
	// disk errors.
	FailPuts error
}

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// NewWith seeds the store, e.g. with data written by a previous session.
func NewWith(seed map[string][]byte) *Store {
	s := New()
	for k, v := range seed {
		s.items[k] = append([]byte(nil), v...)
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	v, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.FailPuts != nil {
		return s.FailPuts
	}
	s.items[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
