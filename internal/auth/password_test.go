package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct-horse", hash)

	assert.True(t, CheckPassword("correct-horse", hash))
	assert.False(t, CheckPassword("wrong-horse", hash))
}

func TestHashPasswordRejectsShortPasswords(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestCheckPasswordBadHash(t *testing.T) {
	assert.False(t, CheckPassword("whatever", "not-a-bcrypt-hash"))
}
