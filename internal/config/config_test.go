package config_test

import (
	"testing"

	"complaintdesk/backend/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := config.Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "admin@tracker.com", cfg.AdminEmail)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.TelegramEnabled())
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingJWTSecret)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_ADMIN_CHAT_ID", "-100200")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://society.example ,")

	cfg := config.Load()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, int64(-100200), cfg.TelegramAdminChatID)
	assert.Equal(t, []string{"http://localhost:3000", "https://society.example"}, cfg.CORSOrigins)
}

func TestLoad_InvalidIntegerFallsBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoad_SupergroupChatID(t *testing.T) {
	t.Setenv("TELEGRAM_ADMIN_CHAT_ID", "-1001234567890")

	cfg := config.Load()

	assert.Equal(t, int64(-1001234567890), cfg.TelegramAdminChatID)
}
