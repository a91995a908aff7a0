package keystore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// LegacyFileStore reads the prior-generation credential file: a flat JSON
// map of unversioned logical keys to values. It is a migration source only
// and is never written to.
type LegacyFileStore struct {
	entries map[string]string
}

// NewLegacyFileStore loads the legacy credential file. A missing file is
// not an error; it simply means there is nothing to migrate.
func NewLegacyFileStore(path string) (*LegacyFileStore, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LegacyFileStore{entries: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy store: %w", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse legacy store: %w", err)
	}
	if entries == nil {
		entries = map[string]string{}
	}

	return &LegacyFileStore{entries: entries}, nil
}

// Get returns the stored value, or ErrKeyNotFound.
func (s *LegacyFileStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}
