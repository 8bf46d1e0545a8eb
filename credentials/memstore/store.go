package memstore

import (
	"sync"

	"github.com/jrsteele09/go-care-client/credentials"
)

var _ credentials.Store = (*Store)(nil)

// Store is an in-memory credentials.Store. Its lifetime is the process.
type Store struct {
	mu   sync.RWMutex
	pair credentials.Pair
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{}
}

// NewWithPair creates a store seeded with pair, as a completed login would
func NewWithPair(pair credentials.Pair) *Store {
	return &Store{pair: pair}
}

func (s *Store) Get() credentials.Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}

func (s *Store) Set(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pair.Access = access
	if refresh != "" {
		s.pair.Refresh = refresh
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = credentials.Pair{}
}
