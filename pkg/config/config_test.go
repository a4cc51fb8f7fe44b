package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("APP_ENV", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "0 0 * * *", cfg.Cron.ExpirySchedule)
	assert.Equal(t, []int{7, 3}, cfg.Cron.WarningDays)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("CRON_SUBSCRIPTION_EXPIRY", "30 1 * * *")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 2525, cfg.Mail.SMTPPort)
	assert.Equal(t, "30 1 * * *", cfg.Cron.ExpirySchedule)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("JWT_TTL", "forever")

	cfg := Load()

	assert.Equal(t, 587, cfg.Mail.SMTPPort)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://u:p@db/x"}
	assert.Equal(t, "postgres://u:p@db/x", d.DSN())

	d = DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}
