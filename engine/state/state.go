// Package state implements the versioned world-state store and the
// immutable snapshots the rest of the engine reads from.
package state

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/nathoo/dialoguecore/types"
)

// Store is the mutable fact database for one session. Safe for concurrent
// use; readers work from snapshots so they always observe a consistent view.
type Store struct {
	mu      sync.RWMutex
	facts   map[string]types.Value
	version uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{facts: map[string]types.Value{}}
}

// FromMap creates a store seeded with the given facts. Absent values are
// dropped rather than stored.
func FromMap(facts map[string]types.Value) *Store {
	s := NewStore()
	for k, v := range facts {
		if !v.IsAbsent() {
			s.facts[k] = v
		}
	}
	return s
}

// Get returns the fact value for key, or Absent when unset. Never an error.
func (s *Store) Get(key string) types.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facts[key]
}

// Set stores a single fact. Setting Absent deletes the key.
func (s *Store) Set(key string, v types.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.IsAbsent() {
		delete(s.facts, key)
	} else {
		s.facts[key] = v
	}
	s.version++
}

// Version returns a counter that increments on every write. Commit bumps
// it once per batch.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns an immutable copy of the current facts.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	facts := make(map[string]types.Value, len(s.facts))
	for k, v := range s.facts {
		facts[k] = v
	}
	return Snapshot{facts: facts, version: s.version}
}

// Commit applies a staged mutation batch atomically: one lock acquisition,
// one version bump, no partial application visible to concurrent readers.
func (s *Store) Commit(records []types.MutationRecord) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if rec.New.IsAbsent() {
			delete(s.facts, rec.Key)
		} else {
			s.facts[rec.Key] = rec.New
		}
	}
	s.version++
}

// Snapshot is a read-only view of the world state at one version.
type Snapshot struct {
	facts   map[string]types.Value
	version uint64
}

// Get returns the fact value for key, or Absent when unset.
func (sn Snapshot) Get(key string) types.Value {
	return sn.facts[key]
}

// Len returns the number of set facts.
func (sn Snapshot) Len() int { return len(sn.facts) }

// Version returns the store version this snapshot was taken at.
func (sn Snapshot) Version() uint64 { return sn.version }

// Keys returns all set fact keys, sorted.
func (sn Snapshot) Keys() []string {
	keys := make([]string, 0, len(sn.facts))
	for k := range sn.facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the facts, for serialization.
func (sn Snapshot) Map() map[string]types.Value {
	facts := make(map[string]types.Value, len(sn.facts))
	for k, v := range sn.facts {
		facts[k] = v
	}
	return facts
}

// With overlays a mutation batch onto the snapshot, returning a new
// snapshot. The receiver is not modified.
func (sn Snapshot) With(records []types.MutationRecord) Snapshot {
	if len(records) == 0 {
		return sn
	}
	facts := make(map[string]types.Value, len(sn.facts)+len(records))
	for k, v := range sn.facts {
		facts[k] = v
	}
	for _, rec := range records {
		if rec.New.IsAbsent() {
			delete(facts, rec.Key)
		} else {
			facts[rec.Key] = rec.New
		}
	}
	return Snapshot{facts: facts, version: sn.version}
}

// Fingerprint hashes the slice of state visible through the given keys.
// Keys must be pre-sorted (the graph stores per-node dependency keys that
// way) so identical slices always produce identical fingerprints.
func (sn Snapshot) Fingerprint(keys []string) uint64 {
	h := fnv.New64a()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		v := sn.facts[k]
		h.Write([]byte{byte(v.Kind())})
		h.Write([]byte(v.String()))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
