package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Valid1Password")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, Verify(hash, "Valid1Password"))
	assert.False(t, Verify(hash, "Wrong1Password"))
}

func TestHash_UniqueSalt(t *testing.T) {
	first, err := Hash("Valid1Password")
	require.NoError(t, err)
	second, err := Hash("Valid1Password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, Verify(first, "Valid1Password"))
	assert.True(t, Verify(second, "Valid1Password"))
}

func TestVerify_MalformedHash(t *testing.T) {
	assert.False(t, Verify("", "Valid1Password"))
	assert.False(t, Verify("$argon2id$garbage", "Valid1Password"))
	assert.False(t, Verify("plaintext-not-a-hash", "Valid1Password"))
}
