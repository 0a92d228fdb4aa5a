package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/golanka")
	t.Setenv("SMTP_USER", "bookings@golanka.travel")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, NotifyModeQueue, cfg.NotifyMode)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, time.Minute, cfg.WorkerInterval)
	assert.Equal(t, 90, cfg.CallbackRetentionDays)
	assert.Equal(t, "bookings@golanka.travel", cfg.EmailFrom)
	assert.False(t, cfg.StripeEnabled())
	assert.False(t, cfg.PayHereEnabled())
	assert.False(t, cfg.RedisEnabled())
}

func TestLoad_ProviderToggles(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/golanka")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	t.Setenv("PAYHERE_MERCHANT_ID", "1221149")
	t.Setenv("PAYHERE_SECRET", "secret")
	t.Setenv("NOTIFY_MODE", "ASYNC")
	t.Setenv("NOTIFY_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.StripeEnabled())
	assert.True(t, cfg.PayHereEnabled())
	assert.False(t, cfg.MidtransEnabled())
	assert.Equal(t, NotifyModeAsync, cfg.NotifyMode)
	assert.Equal(t, 3*time.Second, cfg.NotifyTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing database",
			env:     map[string]string{},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "unknown notify mode",
			env:     map[string]string{"DATABASE_URL": "postgres://x", "NOTIFY_MODE": "carrier-pigeon"},
			wantErr: "NOTIFY_MODE",
		},
		{
			name:    "payhere half configured",
			env:     map[string]string{"DATABASE_URL": "postgres://x", "PAYHERE_MERCHANT_ID": "1221149"},
			wantErr: "must be set together",
		},
		{
			name:    "bad duration",
			env:     map[string]string{"DATABASE_URL": "postgres://x", "WORKER_INTERVAL": "often"},
			wantErr: "invalid WORKER_INTERVAL",
		},
		{
			name:    "bad retention",
			env:     map[string]string{"DATABASE_URL": "postgres://x", "CALLBACK_RETENTION_DAYS": "-1"},
			wantErr: "CALLBACK_RETENTION_DAYS must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_LogLevels(t *testing.T) {
	tests := []struct {
		cfg      Config
		wantSlog slog.Level
		wantGorm logger.LogLevel
	}{
		{cfg: Config{LogLevel: "DEBUG"}, wantSlog: slog.LevelDebug, wantGorm: logger.Info},
		{cfg: Config{LogLevel: "DEBUG", AppEnv: "production"}, wantSlog: slog.LevelDebug, wantGorm: logger.Warn},
		{cfg: Config{LogLevel: "WARN"}, wantSlog: slog.LevelWarn, wantGorm: logger.Warn},
		{cfg: Config{LogLevel: "ERROR"}, wantSlog: slog.LevelError, wantGorm: logger.Warn},
		{cfg: Config{LogLevel: "verbose"}, wantSlog: slog.LevelInfo, wantGorm: logger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.LogLevel+"/"+tt.cfg.AppEnv, func(t *testing.T) {
			assert.Equal(t, tt.wantSlog, tt.cfg.SlogLevel())
			assert.Equal(t, tt.wantGorm, tt.cfg.GormLogLevel())
		})
	}
}
