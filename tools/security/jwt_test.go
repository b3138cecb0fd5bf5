package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))

	token, exp, err := Generate(opts, "user-1", "a@b.c")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := Verify(opts, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.WithinDuration(t, exp, claims.Expiry, time.Second)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("secret-a")), "user-1", "")
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("secret-b")), token)
	assert.Error(t, err)
}

func TestVerifyExpired(t *testing.T) {
	opts := Options{Secret: []byte("s"), Alg: "HS256", TTL: -time.Minute}
	token, _, err := Generate(opts, "user-1", "")
	require.NoError(t, err)

	_, err = Verify(opts, token)
	assert.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := Verify(DefaultOptions([]byte("s")), "not.a.token")
	assert.Error(t, err)
}

func TestUnsupportedAlg(t *testing.T) {
	_, _, err := Generate(Options{Secret: []byte("s"), Alg: "RS256"}, "u", "")
	assert.Error(t, err)
}
