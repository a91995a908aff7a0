package keystore

import (
	"context"
	"errors"
	"testing"
)

// memStore is an in-memory SecureStore for migration tests.
type memStore struct {
	values   map[string]string
	policies map[string]AccessPolicy
	setErr   error
}

func newMemStore() *memStore {
	return &memStore{
		values:   map[string]string{},
		policies: map[string]AccessPolicy{},
	}
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (s *memStore) Set(ctx context.Context, key, value string, policy AccessPolicy) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	s.policies[key] = policy
	return nil
}

// countingLegacy records how often the legacy store is consulted.
type countingLegacy struct {
	values map[string]string
	calls  int
}

func (s *countingLegacy) Get(ctx context.Context, key string) (string, error) {
	s.calls++
	value, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func TestVersionedKey(t *testing.T) {
	if got := VersionedKey(KeyDevicePin); got != "0_DevicePin" {
		t.Fatalf("VersionedKey(KeyDevicePin) = %q, want %q", got, "0_DevicePin")
	}
	if got := VersionedKey(KeyWalletPassword); got != "0_WalletPassword" {
		t.Fatalf("VersionedKey(KeyWalletPassword) = %q, want %q", got, "0_WalletPassword")
	}
}

func TestMigratingStore_CurrentStoreHit(t *testing.T) {
	current := newMemStore()
	current.values["0_DevicePin"] = "123456"
	legacy := &countingLegacy{values: map[string]string{"DevicePin": "999999"}}
	store := NewMigratingStore(current, legacy)

	value, err := store.Get(context.Background(), KeyDevicePin)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "123456" {
		t.Fatalf("value = %q, want %q", value, "123456")
	}
	if legacy.calls != 0 {
		t.Fatalf("legacy store consulted %d times on a current-store hit, want 0", legacy.calls)
	}
}

func TestMigratingStore_MigratesLegacyValueOnce(t *testing.T) {
	current := newMemStore()
	legacy := &countingLegacy{values: map[string]string{"DevicePin": "445566"}}
	store := NewMigratingStore(current, legacy)

	value, err := store.Get(context.Background(), KeyDevicePin)
	if err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	if value != "445566" {
		t.Fatalf("value = %q, want %q", value, "445566")
	}
	if got := current.values["0_DevicePin"]; got != "445566" {
		t.Fatalf("write-back value = %q, want %q", got, "445566")
	}
	if got := current.policies["0_DevicePin"]; got != AccessWhenUnlockedThisDeviceOnly {
		t.Fatalf("write-back policy = %q, want %q", got, AccessWhenUnlockedThisDeviceOnly)
	}

	// Second lookup must come from the current store.
	value, err = store.Get(context.Background(), KeyDevicePin)
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if value != "445566" {
		t.Fatalf("second value = %q, want %q", value, "445566")
	}
	if legacy.calls != 1 {
		t.Fatalf("legacy store consulted %d times, want exactly 1", legacy.calls)
	}
}

func TestMigratingStore_AbsentEverywhereReturnsEmpty(t *testing.T) {
	store := NewMigratingStore(newMemStore(), &countingLegacy{values: map[string]string{}})

	value, err := store.Get(context.Background(), KeyWalletPassword)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "" {
		t.Fatalf("value = %q for absent key, want empty string", value)
	}
}

func TestMigratingStore_NilLegacyReturnsEmpty(t *testing.T) {
	store := NewMigratingStore(newMemStore(), nil)

	value, err := store.Get(context.Background(), KeyDevicePin)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "" {
		t.Fatalf("value = %q with no legacy store, want empty string", value)
	}
}

func TestMigratingStore_WriteBackFailurePropagates(t *testing.T) {
	current := newMemStore()
	current.setErr = errors.New("disk full")
	legacy := &countingLegacy{values: map[string]string{"DevicePin": "445566"}}
	store := NewMigratingStore(current, legacy)

	_, err := store.Get(context.Background(), KeyDevicePin)
	if !errors.Is(err, current.setErr) {
		t.Fatalf("error = %v, want wrapped %v", err, current.setErr)
	}
}

func TestMigratingStore_SetWritesVersionedKey(t *testing.T) {
	current := newMemStore()
	store := NewMigratingStore(current, nil)

	err := store.Set(context.Background(), KeyDevicePin, "123456", AccessWhenUnlockedThisDeviceOnly)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := current.values["0_DevicePin"]; got != "123456" {
		t.Fatalf("stored value = %q under versioned key, want %q", got, "123456")
	}
	if _, ok := current.values["DevicePin"]; ok {
		t.Fatal("value stored under unversioned key")
	}
}
