package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/sahaaya/go-session"
)

func TestHashPassword(t *testing.T) {
	hash, err := session.HashPassword("secret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "secret-pass", hash)

	again, err := session.HashPassword("secret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "bcrypt salts every hash")
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := session.HashPassword("")
	assert.ErrorIs(t, err, session.ErrNoEmptyString)
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := session.HashPassword("secret-pass")
	require.NoError(t, err)

	assert.NoError(t, session.ComparePasswordAndHash("secret-pass", hash))
	assert.ErrorIs(t, session.ComparePasswordAndHash("wrong", hash), session.ErrInvalidCredentials)
	assert.Error(t, session.ComparePasswordAndHash("secret-pass", "not-a-hash"))
}
