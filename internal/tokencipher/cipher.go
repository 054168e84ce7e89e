package tokencipher

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required key length in bytes.
const KeySize = chacha20poly1305.KeySize

var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// Cipher seals access tokens before they are written to a shared store.
// Output is base64url(nonce || ciphertext) using XChaCha20-Poly1305.
type Cipher struct {
	key []byte
}

// New returns a Cipher for a 32 byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("[tokencipher.New] key must be %d bytes, got %d", KeySize, len(key))
	}
	return &Cipher{key: append([]byte(nil), key...)}, nil
}

// NewFromBase64 decodes a standard base64 key, as found in configuration.
func NewFromBase64(encodedKey string) (*Cipher, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("[tokencipher.NewFromBase64] decode key: %w", err)
	}
	return New(key)
}

// Seal encrypts plaintext. The shop is bound as additional data so a token cannot be
// moved between shops' records.
func (c *Cipher) Seal(shop, plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("[Cipher.Seal] %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("[Cipher.Seal] rand.Read: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(shop))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (c *Cipher) Open(shop, ciphertext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("[Cipher.Open] %w", err)
	}

	sealed, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("[Cipher.Open] %w: %v", ErrMalformedCiphertext, err)
	}
	if len(sealed) < aead.NonceSize() {
		return "", fmt.Errorf("[Cipher.Open] %w: too short", ErrMalformedCiphertext)
	}

	nonce, body := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, body, []byte(shop))
	if err != nil {
		return "", fmt.Errorf("[Cipher.Open] %w", err)
	}
	return string(plaintext), nil
}
