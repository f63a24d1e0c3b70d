package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCredentialRoundTrip(t *testing.T) {
	digest, err := HashCredential("hunter2", Params)
	require.NoError(t, err)

	ok, err := VerifyCredential("hunter2", digest)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyCredential("hunter3", digest)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDefaultParamsUsableOnOneCPU(t *testing.T) {
	// NumCPU/2 is 0 on a single-CPU host and argon2 panics below 1
	require.GreaterOrEqual(t, Params.parallelism, uint8(1))

	p := &params{
		memory:      8 * 1024,
		iterations:  1,
		parallelism: 1,
		saltLength:  16,
		keyLength:   32,
	}
	digest, err := HashCredential("hunter2", p)
	require.NoError(t, err)
	ok, err := VerifyCredential("hunter2", digest)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyCredentialMalformedDigest(t *testing.T) {
	_, err := VerifyCredential("whatever", "not-a-digest")
	require.ErrorIs(t, err, ErrInvalidDigest)
}
