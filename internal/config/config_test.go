package config

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FromEnv_RequiresCookieKeys(t *testing.T) {
	t.Setenv("COOKIE_HASH_KEY", "")
	t.Setenv("COOKIE_BLOCK_KEY", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COOKIE_HASH_KEY")
}

func Test_FromEnv_DecodesKeysAndDefaults(t *testing.T) {
	hash := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	block := base64.StdEncoding.EncodeToString([]byte("fedcba9876543210fedcba9876543210"))
	t.Setenv("COOKIE_HASH_KEY", hash)
	t.Setenv("COOKIE_BLOCK_KEY", block)
	t.Setenv("LISTEN_ADDR", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Len(t, cfg.CookieHashKey, 32)
	assert.Len(t, cfg.CookieBlockKey, 32)
}

func Test_FromEnv_RejectsBadBase64(t *testing.T) {
	t.Setenv("COOKIE_HASH_KEY", "not base64!!")
	t.Setenv("COOKIE_BLOCK_KEY", "also not base64!!")

	_, err := FromEnv()
	assert.Error(t, err)
}
