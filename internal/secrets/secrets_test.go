package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestSetGetDelete(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, Set("webhook", "s3cret"))
	v, err := Get("webhook")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	require.NoError(t, Delete("webhook"))
	_, err = Get("webhook")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestValidation(t *testing.T) {
	keyring.MockInit()

	assert.Error(t, Set("", "x"))
	assert.Error(t, Set("acct", "  "))
	_, err := Get(" ")
	assert.Error(t, err)
	assert.Error(t, Delete(""))
}

func TestResolve(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, Set("webhook", "from-keyring"))

	v, err := Resolve("explicit", "webhook")
	require.NoError(t, err)
	assert.Equal(t, "explicit", v)

	v, err = Resolve("", "webhook")
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", v)

	v, err = Resolve("", "")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = Resolve("", "missing")
	assert.ErrorIs(t, err, ErrNoSecret)
}
