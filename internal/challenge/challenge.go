// package challenge implements the ephemeral PKCE state → verifier store.
//
// Entries live only between authorization begin and the provider callback.
// Nothing here is ever persisted; expiry is handled by the store itself.
package challenge

import (
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/maltier/internal/shared"
)

// entry pairs a code verifier with its expiry deadline.
type entry struct {
	verifier  string
	expiresAt time.Time
}

// Store is a bounded-lifetime key-value mapping from state tokens to PKCE code verifiers.
//
// Register overwrites (last write wins); Consume is an atomic get-and-delete,
// so two callbacks racing on the same state cannot both succeed.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// NewStore creates a challenge store whose entries expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Register stores the state → verifier mapping, replacing any existing entry for state.
//
// Expired entries are swept opportunistically here so an abandoned flow never
// grows the map without bound.
func (s *Store) Register(state, verifier string) error {
	if state == "" || verifier == "" {
		return fmt.Errorf("%w: empty state or verifier", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, k)
		}
	}

	s.entries[state] = entry{verifier: verifier, expiresAt: now.Add(s.ttl)}
	return nil
}

// Consume retrieves and deletes the verifier for state in one operation.
//
// A missing, already-consumed, or expired state returns [shared.ErrInvalidState].
func (s *Store) Consume(state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidState, state)
	}

	delete(s.entries, state)

	if !e.expiresAt.After(s.now()) {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidState, state)
	}

	return e.verifier, nil
}

// Len reports the number of live entries, counting any not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
