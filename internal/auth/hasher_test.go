package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("wrong horse", hash))
	assert.False(t, h.Verify("correct horse", "not-a-hash"))
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	a, err := h.Hash("password1")
	require.NoError(t, err)
	b, err := h.Hash("password1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
