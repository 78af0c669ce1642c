package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "yumix", cfg.MongoDatabase)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, "0 2 * * *", cfg.Jobs.NotificationRetention)
	assert.Equal(t, 5*time.Minute, cfg.Jobs.RunTimeout)
	assert.True(t, cfg.Jobs.AdminInlineSweep)
	assert.False(t, cfg.Jobs.UserInlineSweep)
	assert.False(t, cfg.MongoTransactions)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "YuMix", cfg.SMTP.SenderName)
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "JWT_SECRET=from-file\nPORT=9090\nMONGO_TRANSACTIONS=true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("ENV_FILE", path)
	// godotenv never overrides variables that are already set.
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	require.NoError(t, os.Unsetenv("MONGO_TRANSACTIONS"))
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("MONGO_TRANSACTIONS")
	})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "7070", cfg.Port)
	assert.True(t, cfg.MongoTransactions)
}

func TestValidateRequiresSecret(t *testing.T) {
	cfg := &Config{MongoURI: "mongodb://db", MongoDatabase: "yumix", Jobs: JobsConfig{RunTimeout: time.Minute}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.JWTSecret = "secret"
	require.NoError(t, cfg.Validate())
}
