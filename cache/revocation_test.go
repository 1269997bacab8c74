package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenKeyHidesToken(t *testing.T) {
	key := tokenKey("eyJhbGciOiJIUzI1NiJ9.payload.sig")
	assert.True(t, strings.HasPrefix(key, revokedPrefix))
	assert.NotContains(t, key, "payload")
	assert.Len(t, key, len(revokedPrefix)+64)
	assert.Equal(t, key, tokenKey("eyJhbGciOiJIUzI1NiJ9.payload.sig"))
	assert.NotEqual(t, key, tokenKey("other"))
}
