package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/sahaaya/go-session"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func TestTokenServiceMintAndValidate(t *testing.T) {
	ts := session.NewTokenService(testSigningKey, time.Hour, "sahaaya", noopLogger{})

	token, err := ts.Mint("user-1", "priya@example.org", map[string]any{
		"role": "donor",
		"name": "Priya",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "sahaaya", claims.Issuer)
	assert.Equal(t, "priya@example.org", claims.Email)
	assert.Equal(t, "donor", claims.Metadata["role"])
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	ts := session.NewTokenService(testSigningKey, time.Millisecond, "sahaaya", noopLogger{})

	token, err := ts.Mint("user-1", "priya@example.org", nil)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = ts.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrSessionExpired)
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	minter := session.NewTokenService(testSigningKey, time.Hour, "sahaaya", noopLogger{})
	verifier := session.NewTokenService([]byte("another-key-entirely-32-bytes!!!"), time.Hour, "sahaaya", noopLogger{})

	token, err := minter.Mint("user-1", "priya@example.org", nil)
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestTokenServiceRejectsWrongIssuer(t *testing.T) {
	minter := session.NewTokenService(testSigningKey, time.Hour, "someone-else", noopLogger{})
	verifier := session.NewTokenService(testSigningKey, time.Hour, "sahaaya", noopLogger{})

	token, err := minter.Mint("user-1", "priya@example.org", nil)
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	ts := session.NewTokenService(testSigningKey, time.Hour, "sahaaya", noopLogger{})

	_, err := ts.Validate("not-a-token")
	assert.Error(t, err)
}

func TestSessionFromToken(t *testing.T) {
	ts := session.NewTokenService(testSigningKey, time.Hour, "sahaaya", noopLogger{})

	token, err := ts.Mint("user-1", "priya@example.org", map[string]any{"role": "business"})
	require.NoError(t, err)

	sess, err := session.SessionFromToken(ts, token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", sess.Subject)
	assert.Equal(t, "priya@example.org", sess.Email)
	assert.Equal(t, token, sess.AccessToken)

	role, ok := sess.MetadataRole()
	require.True(t, ok)
	assert.Equal(t, session.RoleBusiness, role)

	require.NotNil(t, sess.ExpiresAt)
	assert.False(t, sess.Expired(time.Now()))
	assert.True(t, sess.Expired(time.Now().Add(2*time.Hour)))
}
