package cryptox

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	for _, size := range []int{TokenSize128, TokenSize256, 24} {
		token, err := GenerateToken(size)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		other, err := GenerateToken(size)
		require.NoError(t, err)
		require.NotEqual(t, token, other, "tokens should be unique")
	}
}

func TestGenerateTokenInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := GenerateToken(size)
		require.Error(t, err)
	}
}

func TestGenerateHexToken(t *testing.T) {
	token, err := GenerateHexToken(TokenSize256)
	require.NoError(t, err)
	require.Len(t, token, 64, "32 random bytes hex-encode to 64 chars")

	_, err = hex.DecodeString(token)
	require.NoError(t, err)
}

func TestFingerprintTokenIsDeterministic(t *testing.T) {
	token, err := GenerateToken(TokenSize256)
	require.NoError(t, err)

	fp := FingerprintToken(token)
	require.Equal(t, fp, FingerprintToken(token))
	require.NotEqual(t, fp, FingerprintToken(token+"x"))
	require.Len(t, fp, 43, "base64url-encoded sha256")
}
