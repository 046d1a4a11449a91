package seal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	s, err := NewRandom()
	require.NoError(t, err)
	sealed, err := s.Seal("secret1")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "secret1")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret1", opened)
}

func TestSeal_FreshNoncePerCall(t *testing.T) {
	s, err := NewRandom()
	require.NoError(t, err)
	a, _ := s.Seal("same")
	b, _ := s.Seal("same")
	assert.NotEqual(t, a, b)
}

func TestOpen_WrongKeyFails(t *testing.T) {
	a, _ := NewRandom()
	b, _ := NewRandom()
	sealed, err := a.Seal("secret1")
	require.NoError(t, err)
	_, err = b.Open(sealed)
	assert.Error(t, err)
}

func TestOpen_Garbage(t *testing.T) {
	s, _ := NewRandom()
	_, err := s.Open("not base64!")
	assert.Error(t, err)
	_, err = s.Open("c2hvcnQ=")
	assert.Error(t, err)
}

func TestNew_KeyLength(t *testing.T) {
	_, err := New(strings.Repeat("ab", 16))
	assert.Error(t, err)
	s, err := New(strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.NotNil(t, s)
	_, err = New("zz")
	assert.Error(t, err)
}
