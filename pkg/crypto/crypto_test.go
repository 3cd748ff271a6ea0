package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	key := DeriveKey("state-secret")
	plaintext := []byte(`{"provider":"google"}`)

	encoded, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	require.NotContains(t, encoded, "+")
	require.NotContains(t, encoded, "/")

	decrypted, err := Decrypt(encoded, key)
	require.NoError(t, err)
	require.True(t, bytes.Equal(plaintext, decrypted))
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	encoded, err := Encrypt([]byte("data"), DeriveKey("one"))
	require.NoError(t, err)

	_, err = Decrypt(encoded, DeriveKey("two"))
	require.Error(t, err)
}

func TestDecryptRejectsShortPayload(t *testing.T) {
	_, err := Decrypt("AAAA", DeriveKey("k"))
	require.Error(t, err)
}

func TestGenerateTokenUnique(t *testing.T) {
	a, err := GenerateToken(32)
	require.NoError(t, err)
	b, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.Len(t, DeriveKey("x"), 32)
}

func TestDeriveKeyDeterministic(t *testing.T) {
	require.Equal(t, DeriveKey("secret"), DeriveKey("secret"))
	require.NotEqual(t, DeriveKey("secret"), DeriveKey("Secret"))
	require.Len(t, DeriveKey(""), 32)
}
