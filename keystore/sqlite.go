package keystore

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	_ "modernc.org/sqlite"
)

// Argon2id parameters for store key derivation (matching mobile apps)
const (
	argon2idTime    = 3
	argon2idMemory  = 262144 // 256 MB
	argon2idThreads = 4
	argon2idKeyLen  = 32
)

// DeriveStoreKey derives the 32-byte store key from a device secret and salt
// using Argon2id.
func DeriveStoreKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argon2idTime, argon2idMemory, argon2idThreads, argon2idKeyLen)
}

// recordEnvelope is the sealed value stored in the credentials table.
type recordEnvelope struct {
	Nonce      []byte `cbor:"1,keyasint"`
	Ciphertext []byte `cbor:"2,keyasint"`
	Policy     string `cbor:"3,keyasint"`
}

// SQLiteStore is the current-generation secure store. Values are sealed
// with ChaCha20-Poly1305 under the device key before they reach disk; the
// storage key is bound as associated data so an envelope cannot be moved
// to a different key.
type SQLiteStore struct {
	db  *sql.DB
	key []byte

	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) the credential database at path.
// The key must be 32 bytes; use DeriveStoreKey to obtain one.
func NewSQLiteStore(path string, key []byte) (*SQLiteStore, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("store key must be %d bytes", chacha20poly1305.KeySize)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// Single connection keeps :memory: databases coherent and serializes
	// writes; the credential table holds two rows.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	store := &SQLiteStore{
		db:  db,
		key: key,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS credentials (
		key TEXT PRIMARY KEY,
		envelope BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`

	_, err := s.db.Exec(schema)
	return err
}

// Get retrieves and unseals the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT envelope FROM credentials WHERE key = ?", key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("credential lookup: %w", err)
	}

	var envelope recordEnvelope
	if err := cbor.Unmarshal(blob, &envelope); err != nil {
		return "", fmt.Errorf("corrupt credential envelope: %w", err)
	}

	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}

	plaintext, err := aead.Open(nil, envelope.Nonce, envelope.Ciphertext, []byte(key))
	if err != nil {
		return "", fmt.Errorf("credential unseal: %w", err)
	}

	return string(plaintext), nil
}

// Set seals value under the device key and writes it. Overwrites are
// idempotent.
func (s *SQLiteStore) Set(ctx context.Context, key, value string, policy AccessPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return fmt.Errorf("cipher init: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("nonce generation: %w", err)
	}

	envelope := recordEnvelope{
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, []byte(value), []byte(key)),
		Policy:     string(policy),
	}

	blob, err := cbor.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("envelope encoding: %w", err)
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credentials (key, envelope, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			envelope = excluded.envelope,
			updated_at = excluded.updated_at`,
		key, blob, now, now)
	if err != nil {
		return fmt.Errorf("credential write: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
