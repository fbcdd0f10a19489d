package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Setenv("AUTH_SECRET_KEY", "from-env")
	t.Setenv("AUTH_TOKEN_TTL", "90m")
	t.Setenv("AUTH_REVOCATION_CACHE", "false")
	t.Setenv("AUTH_CORS_ALLOWED_ORIGINS", "https://shop.example,https://admin.example")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.False(t, cfg.RevocationCache)
	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, ":8080", cfg.HTTPAddr, "unset variables keep their value")
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("AUTH_LOG_LEVEL", "debug")
	t.Setenv("AUTH_HTTP_ADDR", ":3000")

	cfg, err := Load([]string{"-a", ":4000"})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":4000", cfg.HTTPAddr)
}
