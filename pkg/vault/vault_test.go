package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	v, err := New(t.TempDir(), "test-passphrase")
	require.NoError(t, err)

	require.NoError(t, v.Put("anthropic", []byte("sk-ant-secret")))

	got, err := v.Get("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-secret", string(got))
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	v, err := New(t.TempDir(), "pw")
	require.NoError(t, err)

	_, err = v.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRotateReplacesSecret(t *testing.T) {
	v, err := New(t.TempDir(), "pw")
	require.NoError(t, err)

	require.NoError(t, v.Put("openai", []byte("old")))
	require.NoError(t, v.Rotate("openai", []byte("new")))

	got, err := v.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestPersistedAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	v1, err := New(dir, "shared-pass")
	require.NoError(t, err)
	require.NoError(t, v1.Put("google", []byte("g-secret")))

	v2, err := New(dir, "shared-pass")
	require.NoError(t, err)
	got, err := v2.Get("google")
	require.NoError(t, err)
	assert.Equal(t, "g-secret", string(got))
}

func TestDeleteRemovesCredential(t *testing.T) {
	v, err := New(t.TempDir(), "pw")
	require.NoError(t, err)
	require.NoError(t, v.Put("x", []byte("s")))
	require.NoError(t, v.Delete("x"))

	_, err = v.Get("x")
	assert.ErrorIs(t, err, ErrNotFound)
}
