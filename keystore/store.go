// Package keystore provides the credential storage layer for the wallet
// auth gate: a versioned-key secure store for the device PIN and the
// machine-generated wallet secret, plus a one-time migration path from the
// prior-generation store.
package keystore

import "context"

// CredentialVersion tags every key written to the current store. Bumping it
// intentionally invalidates all credentials stored under the old tag.
const CredentialVersion = "0"

// Logical credential keys. These are the only two keys this layer stores.
const (
	KeyDevicePin      = "DevicePin"
	KeyWalletPassword = "WalletPassword"
)

// VersionedKey prefixes a logical key with the current format version.
func VersionedKey(key string) string {
	return CredentialVersion + "_" + key
}

// AccessPolicy controls when a stored credential is readable.
type AccessPolicy string

// AccessWhenUnlockedThisDeviceOnly keeps the value readable only while the
// device is unlocked and never exportable to another device.
const AccessWhenUnlockedThisDeviceOnly AccessPolicy = "when-unlocked-this-device-only"

// SecureStore is the current-generation credential store.
type SecureStore interface {
	// Get returns the stored plaintext value, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes the value under the given access policy. Overwrites are
	// idempotent.
	Set(ctx context.Context, key, value string, policy AccessPolicy) error
}

// LegacyStore is the prior-generation store, retained only as a read-only
// migration source.
type LegacyStore interface {
	// Get returns the stored value, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)
}

// Errors
var (
	ErrKeyNotFound = &StoreError{Message: "key not found"}
	ErrStoreClosed = &StoreError{Message: "store is closed"}
)

// StoreError represents a storage error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
