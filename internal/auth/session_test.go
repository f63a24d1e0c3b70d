package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	Init()

	token, err := CreateJWT("alice")
	require.NoError(t, err)

	userID, err := AuthenticateJWT(token)
	require.NoError(t, err)
	require.Equal(t, "alice", userID)
}

func TestJWTRejectsGarbage(t *testing.T) {
	Init()

	_, err := AuthenticateJWT("not-a-token")
	require.Error(t, err)
}

func TestJWTRejectsForeignKey(t *testing.T) {
	Init()
	token, err := CreateJWT("alice")
	require.NoError(t, err)

	// a new signer invalidates everything minted under the old keys
	Init()
	_, err = AuthenticateJWT(token)
	require.Error(t, err)
}

func TestTokenTTLFromEnv(t *testing.T) {
	t.Setenv("TOKEN_EXPIRE_TIME", "90s")
	Init()
	require.Equal(t, float64(90), active.ttl.Seconds())

	t.Setenv("TOKEN_EXPIRE_TIME", "never")
	Init()
	require.Zero(t, active.ttl)
}
