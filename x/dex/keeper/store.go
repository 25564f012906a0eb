package keeper

import (
	"bytes"
	"sort"
	"sync"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

// Store is a branchable in-memory key-value store for Pool, Order and config
// records. A branch buffers writes until Write is called on it, mirroring the
// ledger's branch semantics so record updates and balance transfers commit as
// one unit.
type Store struct {
	mu     *sync.Mutex
	parent *Store
	data   map[string][]byte
	dels   map[string]struct{}
}

// NewStore returns an empty root store.
func NewStore() *Store {
	return &Store{
		mu:   &sync.Mutex{},
		data: make(map[string][]byte),
		dels: make(map[string]struct{}),
	}
}

// Get returns the value for key, or nil if absent.
func (s *Store) Get(key []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(string(key))
}

func (s *Store) get(key string) []byte {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.dels[key]; ok {
			return nil
		}
		if v, ok := cur.data[key]; ok {
			return v
		}
	}
	return nil
}

// Has reports whether key is present.
func (s *Store) Has(key []byte) bool {
	return s.Get(key) != nil
}

// Set stores value under key.
func (s *Store) Set(key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(key)
	delete(s.dels, k)
	s.data[k] = append([]byte(nil), value...)
}

// Delete removes key.
func (s *Store) Delete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(key)
	delete(s.data, k)
	s.dels[k] = struct{}{}
}

// Iterate calls cb for each key with the given prefix, in ascending key
// order, until cb returns true.
func (s *Store) Iterate(prefix []byte, cb func(key, value []byte) (stop bool)) {
	s.mu.Lock()

	merged := make(map[string][]byte)
	deleted := make(map[string]struct{})
	for cur := s; cur != nil; cur = cur.parent {
		for k, v := range cur.data {
			if _, gone := deleted[k]; gone {
				continue
			}
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
		for k := range cur.dels {
			if _, ok := merged[k]; !ok {
				deleted[k] = struct{}{}
			}
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	s.mu.Unlock()

	for _, k := range keys {
		if cb([]byte(k), merged[k]) {
			return
		}
	}
}

// Branch returns a child store layered over this one.
func (s *Store) Branch() *Store {
	return &Store{
		mu:     s.mu,
		parent: s,
		data:   make(map[string][]byte),
		dels:   make(map[string]struct{}),
	}
}

// Write applies the branch's buffered writes to its parent. On the root
// store this is a no-op.
func (s *Store) Write() {
	if s.parent == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.data {
		delete(s.parent.dels, k)
		s.parent.data[k] = v
	}
	for k := range s.dels {
		delete(s.parent.data, k)
		s.parent.dels[k] = struct{}{}
	}
}

// lockTable serializes operations that touch the same entity. Locks are
// acquired in sorted address order so two operations over overlapping entity
// sets cannot deadlock; operations over disjoint sets run concurrently.
type lockTable struct {
	mu    sync.Mutex
	locks map[types.Address]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[types.Address]*sync.Mutex)}
}

// Acquire locks every listed entity and returns the release function.
func (t *lockTable) Acquire(addrs ...types.Address) func() {
	uniq := make([]types.Address, 0, len(addrs))
	seen := make(map[types.Address]struct{}, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		uniq = append(uniq, a)
	}
	sort.Slice(uniq, func(i, j int) bool {
		return bytes.Compare(uniq[i][:], uniq[j][:]) < 0
	})

	acquired := make([]*sync.Mutex, 0, len(uniq))
	for _, a := range uniq {
		t.mu.Lock()
		mu, ok := t.locks[a]
		if !ok {
			mu = &sync.Mutex{}
			t.locks[a] = mu
		}
		t.mu.Unlock()
		mu.Lock()
		acquired = append(acquired, mu)
	}

	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}
