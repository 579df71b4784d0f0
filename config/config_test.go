package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "ecommerce", cfg.Mongo.Database)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Security.OTPTTL)
	assert.Equal(t, "log", cfg.Email.Provider)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("app:\n  env: production\nmongo:\n  uri: mongodb://db:27017\n  database: shop\njwt:\n  secret: from-file\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "shop", cfg.Mongo.Database)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_RequiresSecrets(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_RejectsUnknownEmailProvider(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("EMAIL_PROVIDER", "pigeon")

	_, err := Load(t.TempDir())
	require.Error(t, err)
}
