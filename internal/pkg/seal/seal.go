// Package seal encrypts short-lived secrets, such as the password a pending
// registration carries until it is handed to the account backend.
package seal

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var errOpen = errors.New("sealed value could not be opened")

// Sealer seals and opens values with NaCl secretbox under one key.
type Sealer struct {
	key [keySize]byte
}

// New builds a Sealer from a hex-encoded 32-byte key.
func New(hexKey string) (*Sealer, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode seal key: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", keySize, len(raw))
	}
	s := &Sealer{}
	copy(s.key[:], raw)
	return s, nil
}

// NewRandom builds a Sealer with a fresh random key. Values sealed by it cannot
// be opened after a restart.
func NewRandom() (*Sealer, error) {
	s := &Sealer{}
	if _, err := io.ReadFull(rand.Reader, s.key[:]); err != nil {
		return nil, fmt.Errorf("generate seal key: %w", err)
	}
	return s, nil
}

// Seal encrypts plaintext and returns nonce+box, base64 encoded.
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	box, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", errOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	out, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", errOpen
	}
	return string(out), nil
}
