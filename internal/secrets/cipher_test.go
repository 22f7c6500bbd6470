package secrets

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/anymind-qd/internal/model"
)

func TestRoundTrip(t *testing.T) {
	c, err := New("s3cret")
	require.NoError(t, err)

	for _, in := range []string{"", "sk-or-v1-abc", "ключ 🔑"} {
		ct, err := c.Encrypt(in)
		require.NoError(t, err)
		if in != "" {
			assert.NotEqual(t, in, ct)
		}
		out, err := c.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestNilPassesThrough(t *testing.T) {
	c, err := New("s3cret")
	require.NoError(t, err)
	ct, err := c.EncryptPtr(nil)
	require.NoError(t, err)
	assert.Nil(t, ct)
	pt, err := c.DecryptPtr(nil)
	require.NoError(t, err)
	assert.Nil(t, pt)
}

func TestNoncesDiffer(t *testing.T) {
	c, _ := New("s3cret")
	a, _ := c.Encrypt("same")
	b, _ := c.Encrypt("same")
	assert.NotEqual(t, a, b)
}

func TestWrongKeyAndTamperAreLoud(t *testing.T) {
	c, _ := New("key-a")
	other, _ := New("key-b")
	ct, err := c.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(ct)
	require.Error(t, err)
	assert.True(t, model.IsDecryptionError(err))

	raw, err := base64.RawURLEncoding.DecodeString(ct)
	require.NoError(t, err)
	raw[nonceSize+2] ^= 0x01
	_, err = c.Decrypt(base64.RawURLEncoding.EncodeToString(raw))
	assert.True(t, model.IsDecryptionError(err))

	_, err = c.Decrypt("not base64 !!")
	assert.True(t, model.IsDecryptionError(err))
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("")
	assert.True(t, model.IsConfigurationError(err))
}
