// Package secretbox encrypts secret fields at rest with AES-256-GCM and a
// self-describing envelope. Ciphertext strings carry a fixed marker prefix
// so stored data classifies explicitly as encrypted or plain; numeric
// identifiers and unmarked strings pass through decryption unchanged.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Marker prefixes every ciphertext produced by this package.
const Marker = "enc1:"

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

// ErrBadKeySize is returned by New when the key is not 32 bytes.
var ErrBadKeySize = errors.New("secretbox: key must be 32 bytes")

// Codec encrypts and decrypts envelope-marked strings with a shared key.
type Codec struct {
	key []byte
}

// New creates a Codec from a 32-byte AES-256 key.
func New(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, ErrBadKeySize
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &Codec{key: k}, nil
}

// Encrypt encrypts plaintext and returns a marked envelope string:
// "enc1:" + base64(nonce || ciphertext || tag).
func (c *Codec) Encrypt(plaintext string) (string, error) {
	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return Marker + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a marked envelope string produced by Encrypt. It fails on
// unmarked input; use DecryptValue for tolerant classification.
func (c *Codec) Decrypt(envelope string) (string, error) {
	encoded, ok := strings.CutPrefix(envelope, Marker)
	if !ok {
		return "", fmt.Errorf("secretbox: input lacks %q marker", Marker)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

// DecryptValue classifies a stored value and decrypts it only when it is an
// actual envelope. Purely numeric strings are identifiers and are never
// encrypted, so they pass through as-is; so does any unmarked string. A
// marked value that fails to open, or opens to an empty string, falls back
// to the original input rather than erroring, since stored data predating
// the current key must still be readable as an opaque value.
func (c *Codec) DecryptValue(value string) string {
	if value == "" || isNumeric(value) {
		return value
	}
	if !strings.HasPrefix(value, Marker) {
		return value
	}

	plaintext, err := c.Decrypt(value)
	if err != nil || plaintext == "" {
		return value
	}
	return plaintext
}

func (c *Codec) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
