package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	minCode = 100000
	maxCode = 999999
)

// NewCode returns a uniformly random code in [100000, 999999]. The range keeps
// every code exactly six digits wide.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+minCode), nil
}
