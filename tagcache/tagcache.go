// Package tagcache provides a process-wide, TTL-bounded memoization
// store for tag listings. The store only holds snapshots and answers
// expiry questions; all policy (when to evict, when to bypass) lives in
// the quay client.
package tagcache

import (
	"fmt"
	"sync"
	"time"

	quaytags "github.com/wolfeidau/quay-tags"
)

// TTL is the fixed validity window for cached tag listings. Tags can
// move between fetches, so entries go stale quickly.
const TTL = 5 * time.Minute

// Key addresses one cached tag listing. Requests made with different
// credentials (or one authenticated, one anonymous) must not share an
// entry, since the visible tag set can differ by permission level.
type Key struct {
	Organization string
	Repository   string
	Limit        int
	Credential   string
}

// String returns the composite cache key.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s:%d:%s", k.Organization, k.Repository, k.Limit, k.Credential)
}

// Entry is an immutable snapshot of a successful fetch. Entries are
// never mutated after creation; replacement is always insert-or-overwrite
// under the same key.
type Entry struct {
	Tags      []quaytags.Tag
	CreatedAt time.Time
}

// Expired reports whether the entry is past its TTL at the given time.
func (e Entry) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > TTL
}

// Store is a concurrency-safe key-value store of tag listings. Create
// one at process start and share it by reference across client
// instances; tests create a fresh store per test for isolation.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Get returns the entry for the key, if present. Get does not evict;
// the caller decides what to do with an expired entry.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key.String()]
	return e, ok
}

// Put inserts or overwrites the entry for the key with a freshly stamped
// creation time. The tag list is copied on the way in so later caller
// mutation cannot reach the cached snapshot.
func (s *Store) Put(key Key, tags []quaytags.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key.String()] = Entry{
		Tags:      quaytags.CloneTags(tags),
		CreatedAt: s.now(),
	}
}

// Remove deletes the entry for the key, if present.
func (s *Store) Remove(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key.String())
}

// Clear discards every entry regardless of expiry state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
}

// Len returns the number of entries currently held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
