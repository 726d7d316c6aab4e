// Package vault implements the Credential Vault: encrypted at-rest storage
// of provider API secrets, looked up by provider id. It follows tarsy's
// single-writer registry pattern (pkg/config/llm.go) with an added
// encryption layer, since the vault additionally persists secret bytes
// rather than plain configuration.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"github.com/corepath/partner/pkg/storage"
)

// ErrNotFound indicates no credential is stored for a provider id.
var ErrNotFound = errors.New("vault: credential not found")

const (
	pbkdf2Iterations = 200_000
	keyLen           = 32 // AES-256
)

// Vault is an encrypted, at-rest store of provider secrets. One Vault owns
// the "credentials" blob exclusively (spec.md §6); all other components
// see only what Get returns.
type Vault struct {
	mu     sync.RWMutex
	store  *storage.Store
	key    []byte
	cache  map[string][]byte // decrypted secret cache, providerID -> secret
}

// record is the on-disk shape of one encrypted credential.
type record struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// New creates a Vault rooted at dir, deriving its encryption key from
// passphrase via PBKDF2-HMAC-SHA256 with a fixed application-level salt.
// The salt does not need to be secret (only the passphrase does); it exists
// to keep the derived key bound to this codebase's usage, not to substitute
// for a real per-install salt, which an operator should supply via
// passphrase itself.
func New(dir, passphrase string) (*Vault, error) {
	st, err := storage.New(dir)
	if err != nil {
		return nil, err
	}
	key := pbkdf2.Key([]byte(passphrase), []byte("partner-credential-vault/v1"), pbkdf2Iterations, keyLen, sha256.New)
	return &Vault{store: st, key: key, cache: make(map[string][]byte)}, nil
}

// Put stores a provider secret, encrypting it before it touches disk.
func (v *Vault) Put(providerID string, secret []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	rec, err := v.encrypt(secret)
	if err != nil {
		return err
	}
	if err := v.store.WriteRecord(providerID, rec); err != nil {
		return fmt.Errorf("vault: persist %s: %w", providerID, err)
	}
	v.cache[providerID] = secret
	return nil
}

// Get returns the decrypted secret for a provider id, reading through the
// cache to disk on a miss.
func (v *Vault) Get(providerID string) ([]byte, error) {
	v.mu.RLock()
	if s, ok := v.cache[providerID]; ok {
		v.mu.RUnlock()
		cp := make([]byte, len(s))
		copy(cp, s)
		return cp, nil
	}
	v.mu.RUnlock()

	var rec record
	if err := v.store.ReadRecord(providerID, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, providerID)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	secret, err := v.decrypt(rec)
	if err != nil {
		return nil, err
	}
	v.cache[providerID] = secret
	return secret, nil
}

// Rotate replaces a provider's secret, invalidating the cached value.
func (v *Vault) Rotate(providerID string, newSecret []byte) error {
	return v.Put(providerID, newSecret)
}

// Delete removes a provider's credential entirely.
func (v *Vault) Delete(providerID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.cache, providerID)
	return v.store.DeleteRecord(providerID)
}

func (v *Vault) newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("vault: init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func (v *Vault) encrypt(plaintext []byte) (record, error) {
	gcm, err := v.newGCM()
	if err != nil {
		return record{}, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return record{}, fmt.Errorf("vault: generate nonce: %w", err)
	}
	ct := gcm.Seal(nil, nonce, plaintext, nil)
	return record{Nonce: nonce, Ciphertext: ct}, nil
}

func (v *Vault) decrypt(rec record) ([]byte, error) {
	gcm, err := v.newGCM()
	if err != nil {
		return nil, err
	}
	pt, err := gcm.Open(nil, rec.Nonce, rec.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("vault: decrypt: %w", err)
	}
	return pt, nil
}
