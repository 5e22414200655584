package secrets

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// SealedPrefix marks a connection string encrypted with the platform seal key.
const SealedPrefix = "sealed:"

// Sealer encrypts and decrypts connection strings with XChaCha20-Poly1305.
// Sealed values look like "sealed:<base64(nonce|ciphertext)>".
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the encryption key from a 32-byte master key.
func NewSealer(master []byte) (*Sealer, error) {
	key, err := deriveKey(master)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns the sealed reference for plaintext.
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Join(ErrSealFailed, err)
	}

	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return SealedPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a sealed reference. The prefix is optional.
func (s *Sealer) Open(ref string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(ref, SealedPrefix))
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	ns := s.aead.NonceSize()
	if len(raw) < ns+s.aead.Overhead() {
		return "", ErrInvalidCiphertext
	}

	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", errors.Join(ErrOpenFailed, err)
	}
	return string(plain), nil
}

// Reveal implements Backend.
func (s *Sealer) Reveal(_ context.Context, ref string) (string, error) {
	return s.Open(ref)
}
