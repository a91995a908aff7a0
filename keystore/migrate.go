package keystore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// MigratingStore layers the current secure store over the legacy store.
// Lookups hit the current store first under the versioned key; on a miss
// the legacy store is consulted under the unversioned key and a hit is
// immediately written back, so migration happens at most once per key.
//
// A key absent from both stores yields an empty string with no error.
// Callers must treat the empty string as "not set", never as a valid
// secret.
type MigratingStore struct {
	current SecureStore
	legacy  LegacyStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMigratingStore creates a migrating store. legacy may be nil when no
// prior-generation store exists on the device.
func NewMigratingStore(current SecureStore, legacy LegacyStore) *MigratingStore {
	return &MigratingStore{
		current: current,
		legacy:  legacy,
		locks:   make(map[string]*sync.Mutex),
	}
}

// keyLock returns the per-key lock, creating it on first use. The lock
// serializes the legacy read and write-back so two concurrent lookups
// cannot race the migration of the same key.
func (s *MigratingStore) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Get retrieves a credential by logical key, migrating it from the legacy
// store on first access if needed.
func (s *MigratingStore) Get(ctx context.Context, key string) (string, error) {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	value, err := s.current.Get(ctx, VersionedKey(key))
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return "", fmt.Errorf("current store read: %w", err)
	}

	if s.legacy == nil {
		return "", nil
	}

	value, err = s.legacy.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("legacy store read: %w", err)
	}

	// Write back so the next lookup hits the current store directly.
	if err := s.current.Set(ctx, VersionedKey(key), value, AccessWhenUnlockedThisDeviceOnly); err != nil {
		return "", fmt.Errorf("migration write-back: %w", err)
	}

	log.Info().Str("key", key).Msg("Credential migrated from legacy store")

	return value, nil
}

// Set writes a credential to the current store under its versioned key.
func (s *MigratingStore) Set(ctx context.Context, key, value string, policy AccessPolicy) error {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	return s.current.Set(ctx, VersionedKey(key), value, policy)
}
