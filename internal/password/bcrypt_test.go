package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hash)
	require.True(t, strings.HasPrefix(hash, "$2"))

	require.True(t, h.Verify("correct horse battery", hash))
	require.False(t, h.Verify("wrong horse battery", hash))
}

func TestHash_IsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, err := h.Hash("same-secret")
	require.NoError(t, err)
	b, err := h.Hash("same-secret")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.True(t, h.Verify("same-secret", a))
	require.True(t, h.Verify("same-secret", b))
}

func TestVerify_GarbageHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	require.False(t, h.Verify("anything", ""))
	require.False(t, h.Verify("anything", "not-a-bcrypt-hash"))
}

func TestHash_TooLong(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("x", MaxLength+1))
	require.ErrorIs(t, err, ErrTooLong)
}

func TestNewHasher_ClampsCost(t *testing.T) {
	require.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	require.Equal(t, bcrypt.MaxCost, NewHasher(99).cost)
}
